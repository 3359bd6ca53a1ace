// Package gateway runs the enabled chat channels against one command
// dispatcher and serves health and readiness endpoints.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"arxivbot/pkg/bus"
	"arxivbot/pkg/channel"
	"arxivbot/pkg/command"
	"arxivbot/pkg/config"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHealthHost = "0.0.0.0"
	defaultHealthPort = 18790
)

const (
	metaRequestIDKey = "request_id"
	metaKindKey      = "kind"
	metaPapersKey    = "papers"
)

type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	bus      *bus.MessageBus
	sessions *sessionManager
	channels []channel.Adapter

	mu            sync.RWMutex
	startedAt     time.Time
	lastCommandAt time.Time
	counters      commandCounters
	channelStates map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type commandCounters struct {
	Received  int64 `json:"received"`
	Completed int64 `json:"completed"`
	NotFound  int64 `json:"not_found"`
	Failed    int64 `json:"failed"`
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	LastCommandAt string                  `json:"last_command_at,omitempty"`
	Sessions      int                     `json:"sessions"`
	Commands      commandCounters         `json:"commands"`
	Channels      map[string]channelState `json:"channels"`
}

// NewService wires adapters to commander. messageBus may be nil.
func NewService(cfg *config.Config, commander Commander, adapters []channel.Adapter, messageBus *bus.MessageBus, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if commander == nil {
		return nil, errors.New("commander is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		bus:           messageBus,
		sessions:      newSessionManager(commander, log),
		channels:      adapters,
		channelStates: channelStates,
	}, nil
}

// Run blocks until ctx is done or a channel or the status server fails.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	defer s.sessions.Close()

	for _, adapter := range s.channels {
		s.setChannelState(adapter.Name(), channelState{Running: true})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.runHealthServer(gctx)
	})

	for _, adapter := range s.channels {
		g.Go(func() error {
			err := adapter.Run(gctx, s.handleInbound)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *Service) handleInbound(ctx context.Context, inbound bus.InboundMessage) (bus.OutboundMessage, error) {
	requestID := ulid.Make().String()
	s.recordReceived()
	s.publish(ctx, inbound, requestID, bus.EventCommandReceived, map[string]string{
		"content": channel.PreviewText(inbound.Content),
	}, "")

	result := s.sessions.Handle(ctx, sessionKey(inbound), inbound.Content)
	metadata := resultMetadata(requestID, result)

	s.recordFinished(result)
	if result.Err != nil {
		s.publish(ctx, inbound, requestID, bus.EventCommandFailed, metadata, result.Err.Error())
	} else {
		s.publish(ctx, inbound, requestID, bus.EventCommandCompleted, metadata, "")
	}

	return bus.OutboundMessage{
		Channel:    inbound.Channel,
		ChatID:     inbound.ChatID,
		SessionKey: inbound.SessionKey,
		Content:    result.Text,
		Metadata:   metadata,
	}, nil
}

func (s *Service) publish(ctx context.Context, inbound bus.InboundMessage, requestID string, eventType bus.EventType, payload map[string]string, errText string) {
	if s.bus == nil {
		return
	}

	s.bus.PublishEvent(ctx, bus.Event{
		Type:       eventType,
		Channel:    inbound.Channel,
		ChatID:     inbound.ChatID,
		SessionKey: inbound.SessionKey,
		RequestID:  requestID,
		Payload:    payload,
		Error:      errText,
	})
}

// resultMetadata maps a command result to outbound metadata keys.
func resultMetadata(requestID string, result command.Result) map[string]string {
	return map[string]string{
		metaRequestIDKey: requestID,
		metaKindKey:      string(result.Kind),
		metaPapersKey:    strconv.Itoa(result.Papers),
	}
}

// sessionKey falls back to channel and chat id when the adapter left it blank.
func sessionKey(inbound bus.InboundMessage) string {
	if key := strings.TrimSpace(inbound.SessionKey); key != "" {
		return key
	}

	return inbound.Channel + ":" + inbound.ChatID
}

func (s *Service) runHealthServer(ctx context.Context) error {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHealthHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultHealthPort
	}

	addr := host + ":" + strconv.Itoa(port)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start status server: %w", err)
	}

	return nil
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	sessions := s.sessions.Len()

	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	lastCommand := ""
	if !s.lastCommandAt.IsZero() {
		lastCommand = s.lastCommandAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		LastCommandAt: lastCommand,
		Sessions:      sessions,
		Commands:      s.counters,
		Channels:      channels,
	}
}

// isReady reports whether at least one channel is running.
func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}

	return false
}

func (s *Service) recordReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Received++
	s.lastCommandAt = time.Now().UTC()
}

func (s *Service) recordFinished(result command.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case result.Err != nil:
		s.counters.Failed++
	case result.Kind == command.KindNotFound:
		s.counters.NotFound++
	default:
		s.counters.Completed++
	}
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
