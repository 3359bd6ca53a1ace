package slack

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"arxivbot/pkg/arxiv"
	"arxivbot/pkg/bus"
	"arxivbot/pkg/command"
	"arxivbot/pkg/config"

	"github.com/stretchr/testify/require"
)

type post struct {
	channel string
	text    string
}

type fakeSession struct {
	mu         sync.Mutex
	connectErr error
	identity   string
	batches    [][]Event
	cancel     context.CancelFunc
	posts      []post
}

func (s *fakeSession) Connect(context.Context) error {
	return s.connectErr
}

func (s *fakeSession) Read(context.Context) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.batches) == 0 {
		s.cancel()
		return nil, context.Canceled
	}

	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func (s *fakeSession) Identity(context.Context) (string, error) {
	return s.identity, nil
}

func (s *fakeSession) Post(_ context.Context, channel string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = append(s.posts, post{channel: channel, text: text})
	return nil
}

func (s *fakeSession) postsFor(channel string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var texts []string
	for _, p := range s.posts {
		if p.channel == channel {
			texts = append(texts, p.text)
		}
	}
	return texts
}

type fakeFetcher struct {
	papers []arxiv.Paper
	gotIDs []string
}

func (f *fakeFetcher) Query(_ context.Context, ids []string) ([]arxiv.Paper, error) {
	f.gotIDs = ids
	return f.papers, nil
}

func runAdapter(t *testing.T, session *fakeSession, cfg config.SlackConfig, handler func(context.Context, bus.InboundMessage) (bus.OutboundMessage, error)) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session.cancel = cancel

	adapter := newAdapter(session, cfg, nil)
	adapter.interval = time.Millisecond
	return adapter.Run(ctx, handler)
}

func echoHandler(_ context.Context, inbound bus.InboundMessage) (bus.OutboundMessage, error) {
	return bus.OutboundMessage{Channel: inbound.Channel, ChatID: inbound.ChatID, Content: "echo: " + inbound.Content}, nil
}

func TestRunRepliesToArxivMention(t *testing.T) {
	fetcher := &fakeFetcher{papers: []arxiv.Paper{{
		ID:      "1111.2222",
		Title:   "A Paper",
		Authors: []string{"Ada Lovelace", "Alan Turing"},
		Summary: "Line one.\nLine two.",
		PDFURL:  "http://arxiv.org/pdf/1111.2222v1",
	}}}
	dispatcher, err := command.NewDispatcher(fetcher, command.Options{Maintainer: "danfei"})
	require.NoError(t, err)

	session := &fakeSession{
		identity: "BOT123",
		batches: [][]Event{{
			{Type: "message", Text: "<@BOT123> check https://arxiv.org/abs/1111.2222", Channel: "C1", User: "U1"},
		}},
	}
	handler := func(ctx context.Context, inbound bus.InboundMessage) (bus.OutboundMessage, error) {
		result := dispatcher.Handle(ctx, inbound.Content)
		return bus.OutboundMessage{Channel: inbound.Channel, ChatID: inbound.ChatID, Content: result.Text}, nil
	}

	require.NoError(t, runAdapter(t, session, config.SlackConfig{}, handler))

	require.Equal(t, []string{"1111.2222"}, fetcher.gotIDs)
	require.Equal(t, []post{{
		channel: "C1",
		text: "Here is what I found on arXiv: \n\n" +
			"Title: A Paper\n" +
			"Authors: Ada Lovelace, Alan Turing\n\n" +
			"Abstract (auto-summarized): Line one. Line two.\n\n" +
			"PDF: http://arxiv.org/pdf/1111.2222v1",
	}}, session.posts)
}

func TestRunHandlesFirstCommandOfBatch(t *testing.T) {
	session := &fakeSession{
		identity: "UBOT",
		batches: [][]Event{
			{
				{Type: "message", Text: "hello", Channel: "C1"},
				{Type: "message", Text: "<@UBOT> one", Channel: "C1"},
				{Type: "message", Text: "<@UBOT> two", Channel: "C2"},
			},
			{},
			{{Type: "message", Text: "<@UBOT> three", Channel: "C2"}},
		},
	}

	require.NoError(t, runAdapter(t, session, config.SlackConfig{}, echoHandler))

	require.Equal(t, []post{
		{channel: "C1", text: "echo: one"},
		{channel: "C2", text: "echo: three"},
	}, session.posts)
}

func TestRunProcessWholeBatch(t *testing.T) {
	session := &fakeSession{
		identity: "UBOT",
		batches: [][]Event{{
			{Type: "message", Text: "<@UBOT> one", Channel: "C1"},
			{Type: "message", Text: "<@UBOT> two", Channel: "C2"},
			{Type: "message", Text: "<@UBOT> three", Channel: "C1"},
		}},
	}

	require.NoError(t, runAdapter(t, session, config.SlackConfig{ProcessWholeBatch: true}, echoHandler))

	require.Equal(t, []string{"echo: one", "echo: three"}, session.postsFor("C1"))
	require.Equal(t, []string{"echo: two"}, session.postsFor("C2"))
}

func TestRunPostsFailureReplyOnHandlerError(t *testing.T) {
	session := &fakeSession{
		identity: "UBOT",
		batches:  [][]Event{{{Type: "message", Text: "<@UBOT> boom", Channel: "C1"}}},
	}
	handler := func(context.Context, bus.InboundMessage) (bus.OutboundMessage, error) {
		return bus.OutboundMessage{Error: "secret detail"}, errors.New("handler failed: secret detail")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session.cancel = cancel

	adapter := newAdapter(session, config.SlackConfig{}, nil)
	adapter.interval = time.Millisecond
	adapter.failureReply = command.FailureText("danfei")

	require.NoError(t, adapter.Run(ctx, handler))
	require.Equal(t, []post{{channel: "C1", text: "Some exception caught. @danfei go debug!"}}, session.posts)
}

func TestRunHandlerErrorWithoutFailureReplyPostsNothing(t *testing.T) {
	session := &fakeSession{
		identity: "UBOT",
		batches:  [][]Event{{{Type: "message", Text: "<@UBOT> boom", Channel: "C1"}}},
	}
	handler := func(context.Context, bus.InboundMessage) (bus.OutboundMessage, error) {
		return bus.OutboundMessage{}, errors.New("handler failed")
	}

	require.NoError(t, runAdapter(t, session, config.SlackConfig{}, handler))
	require.Empty(t, session.posts)
}

func TestRunConnectFailure(t *testing.T) {
	session := &fakeSession{connectErr: errors.New("invalid_auth")}

	err := runAdapter(t, session, config.SlackConfig{}, echoHandler)

	require.ErrorIs(t, err, ErrConnect)
	require.ErrorContains(t, err, "invalid_auth")
	require.Empty(t, session.posts)
}

func TestRunRequiresHandler(t *testing.T) {
	adapter := newAdapter(&fakeSession{}, config.SlackConfig{}, nil)
	require.Error(t, adapter.Run(context.Background(), nil))
}

func TestNewAdapterValidatesTokens(t *testing.T) {
	_, err := NewAdapter(config.SlackConfig{AppToken: "xapp-1"}, "", nil)
	require.ErrorContains(t, err, "bot_token")

	_, err = NewAdapter(config.SlackConfig{BotToken: "xoxb-1", AppToken: "xoxb-2"}, "", nil)
	require.ErrorContains(t, err, "xapp-")

	adapter, err := NewAdapter(config.SlackConfig{BotToken: "xoxb-1", AppToken: "xapp-1"}, "sorry", nil)
	require.NoError(t, err)
	require.Equal(t, "sorry", adapter.failureReply)
}

func TestNewAdapterPollInterval(t *testing.T) {
	adapter := newAdapter(&fakeSession{}, config.SlackConfig{}, nil)
	require.Equal(t, time.Second, adapter.interval)

	adapter = newAdapter(&fakeSession{}, config.SlackConfig{PollIntervalSeconds: 3}, nil)
	require.Equal(t, 3*time.Second, adapter.interval)
	require.Equal(t, "slack", adapter.Name())
}
