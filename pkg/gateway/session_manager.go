package gateway

import (
	"context"
	"log/slog"
	"sync"

	"arxivbot/pkg/command"
)

// Commander runs one command and always produces a reply.
type Commander interface {
	Handle(ctx context.Context, text string) command.Result
}

// sessionManager serializes commands per session key so that one chat has
// at most one command in flight.
type sessionManager struct {
	commander Commander
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// sessionState is the mutable state tracked for one session key.
type sessionState struct {
	mu      sync.Mutex
	handled int
}

func newSessionManager(commander Commander, log *slog.Logger) *sessionManager {
	if log == nil {
		log = slog.Default()
	}

	return &sessionManager{
		commander: commander,
		log:       log.With("component", "gateway.session_manager"),
		sessions:  make(map[string]*sessionState),
	}
}

// Handle runs text through the commander while holding the session lock.
func (m *sessionManager) Handle(ctx context.Context, sessionKey string, text string) command.Result {
	session := m.session(sessionKey)

	session.mu.Lock()
	defer session.mu.Unlock()

	result := m.commander.Handle(ctx, text)
	session.handled++

	m.log.Debug("Command handled", "session_key", sessionKey, "kind", result.Kind, "handled", session.handled)
	return result
}

// session returns an existing session state or lazily creates one.
func (m *sessionManager) session(sessionKey string) *sessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionKey]
	if !ok {
		session = &sessionState{}
		m.sessions[sessionKey] = session
	}

	return session
}

// Len reports how many sessions have been seen.
func (m *sessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// Close drops tracked session state.
func (m *sessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.sessions)
}
