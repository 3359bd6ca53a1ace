// Package slack runs the bot on a Slack workspace: it polls the session for
// events, picks out direct mentions of the bot and posts one reply per
// command back to the originating channel.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"arxivbot/pkg/bus"
	"arxivbot/pkg/channel"
	"arxivbot/pkg/config"

	"golang.org/x/sync/errgroup"
)

const channelName = "slack"

// ErrConnect marks a failed initial connection to Slack.
var ErrConnect = errors.New("slack connection failed")

// Adapter bridges Slack events into arxivbot commands.
type Adapter struct {
	session      Session
	interval     time.Duration
	wholeBatch   bool
	failureReply string
	log          *slog.Logger
}

// NewAdapter validates Slack configuration and constructs a Socket Mode
// adapter. failureReply is posted when the handler fails outright.
func NewAdapter(cfg config.SlackConfig, failureReply string, log *slog.Logger) (*Adapter, error) {
	if log == nil {
		log = slog.Default()
	}

	session, err := newSocketSession(cfg, log.With("component", "channel.slack.session"))
	if err != nil {
		return nil, err
	}

	adapter := newAdapter(session, cfg, log)
	adapter.failureReply = failureReply
	return adapter, nil
}

func newAdapter(session Session, cfg config.SlackConfig, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}

	seconds := cfg.PollIntervalSeconds
	if seconds <= 0 {
		seconds = config.DefaultPollIntervalSeconds
	}

	return &Adapter{
		session:    session,
		interval:   time.Duration(seconds) * time.Second,
		wholeBatch: cfg.ProcessWholeBatch,
		log:        log.With("component", "channel.slack"),
	}
}

// Name returns the channel identifier used in bus metadata and logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run connects, resolves the bot identity and then polls until ctx is done.
// By default only the first command of each polled batch is handled.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	if err := a.session.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	botID, err := a.session.Identity(ctx)
	if err != nil {
		return fmt.Errorf("%w: resolve bot identity: %w", ErrConnect, err)
	}

	a.log.Info("Slack channel started", "bot_id", botID, "poll_interval", a.interval, "process_whole_batch", a.wholeBatch)

	for {
		events, err := a.session.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read slack events: %w", err)
		}

		commands := ParseCommands(events, botID)
		if !a.wholeBatch && len(commands) > 1 {
			a.log.Debug("Ignoring extra commands in batch", "ignored", len(commands)-1)
			commands = commands[:1]
		}
		a.dispatch(ctx, handler, commands)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.interval):
		}
	}
}

// dispatch handles commands of one channel in arrival order and different
// channels concurrently.
func (a *Adapter) dispatch(ctx context.Context, handler channel.Handler, commands []Command) {
	if len(commands) == 0 {
		return
	}
	if len(commands) == 1 {
		a.handle(ctx, handler, commands[0])
		return
	}

	var order []string
	byChannel := make(map[string][]Command)
	for _, command := range commands {
		if _, ok := byChannel[command.Channel]; !ok {
			order = append(order, command.Channel)
		}
		byChannel[command.Channel] = append(byChannel[command.Channel], command)
	}

	var g errgroup.Group
	for _, channelID := range order {
		queued := byChannel[channelID]
		g.Go(func() error {
			for _, command := range queued {
				a.handle(ctx, handler, command)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Adapter) handle(ctx context.Context, handler channel.Handler, command Command) {
	inbound := bus.InboundMessage{
		Channel:    channelName,
		SenderID:   command.User,
		ChatID:     command.Channel,
		SessionKey: sessionKey(command.Channel),
		Content:    command.Text,
	}
	a.log.Info("Received command", "channel_id", command.Channel, "user", command.User, "content", channel.PreviewText(command.Text))

	outbound, err := handler(ctx, inbound)
	if err != nil {
		a.log.Error("Failed to process command", "channel_id", command.Channel, "error", err)
		outbound = bus.OutboundMessage{Content: a.failureReply}
	}

	reply := channel.ReplyText(outbound)
	if reply == "" {
		return
	}

	a.log.Info("Sending reply", "channel_id", command.Channel, "content", channel.PreviewText(reply))
	if err := a.session.Post(ctx, command.Channel, reply); err != nil {
		a.log.Error("Failed to post slack message", "channel_id", command.Channel, "error", err)
	}
}

// sessionKey maps one Slack channel to one serialization namespace.
func sessionKey(channelID string) string {
	return "slack:" + channelID
}
