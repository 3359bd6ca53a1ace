package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"arxivbot/pkg/config"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

const pendingEventBuffer = 256

// Session is the chat connection the event loop drives.
type Session interface {
	// Connect blocks until the session is established or has failed.
	Connect(ctx context.Context) error
	// Read returns the events received since the previous call. The batch
	// may be empty.
	Read(ctx context.Context) ([]Event, error)
	// Identity returns the bot's own user id.
	Identity(ctx context.Context) (string, error)
	// Post sends text to channel.
	Post(ctx context.Context, channel string, text string) error
}

// socketSession is a Session over Slack Socket Mode.
type socketSession struct {
	api     *slackapi.Client
	client  *socketmode.Client
	pending chan Event
	failed  chan error
	log     *slog.Logger
}

func newSocketSession(cfg config.SlackConfig, log *slog.Logger) (*socketSession, error) {
	botToken := strings.TrimSpace(cfg.BotToken)
	if botToken == "" {
		return nil, errors.New("channels.slack.bot_token is required (or set SLACK_BOT_TOKEN)")
	}

	appToken := strings.TrimSpace(cfg.AppToken)
	if !strings.HasPrefix(appToken, "xapp-") {
		return nil, errors.New("channels.slack.app_token must be a Socket Mode app token starting with xapp- (or set SLACK_APP_TOKEN)")
	}

	api := slackapi.New(botToken, slackapi.OptionAppLevelToken(appToken), slackapi.OptionDebug(cfg.Debug))

	return &socketSession{
		api:     api,
		client:  socketmode.New(api, socketmode.OptionDebug(cfg.Debug)),
		pending: make(chan Event, pendingEventBuffer),
		failed:  make(chan error, 1),
		log:     log,
	}, nil
}

func (s *socketSession) Connect(ctx context.Context) error {
	runErr := make(chan error, 1)
	go func() {
		runErr <- s.client.RunContext(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-runErr:
			return runStopped(err)
		case evt := <-s.client.Events:
			switch evt.Type {
			case socketmode.EventTypeConnecting:
				s.log.Debug("Connecting to Slack Socket Mode")
			case socketmode.EventTypeConnectionError:
				return fmt.Errorf("socket mode connection error: %v", evt.Data)
			case socketmode.EventTypeConnected:
				go s.pump(ctx, s.client.Events, runErr)
				return nil
			default:
				s.handle(evt)
			}
		}
	}
}

// pump moves socket mode events into the pending buffer until ctx ends or
// the client stops. A stopped client is reported by the next Read.
func (s *socketSession) pump(ctx context.Context, events <-chan socketmode.Event, runErr <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-runErr:
			if ctx.Err() == nil {
				s.fail(runStopped(err))
			}
			return
		case evt, ok := <-events:
			if !ok {
				s.fail(errors.New("socket mode event stream closed"))
				return
			}
			s.handle(evt)
		}
	}
}

func (s *socketSession) fail(err error) {
	select {
	case s.failed <- err:
	default:
	}
}

func runStopped(err error) error {
	if err == nil {
		return errors.New("socket mode client stopped")
	}
	return fmt.Errorf("socket mode client stopped: %w", err)
}

func (s *socketSession) handle(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnectionError:
		s.log.Warn("Slack connection error, socket mode will reconnect", "error", evt.Data)
	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil && s.client != nil {
			s.client.Ack(*evt.Request)
		}

		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok || eventsAPIEvent.Type != slackevents.CallbackEvent {
			return
		}

		message, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			return
		}

		event := Event{
			Type:      message.Type,
			Subtype:   message.SubType,
			Text:      message.Text,
			Channel:   message.Channel,
			User:      message.User,
			TimeStamp: message.TimeStamp,
		}

		select {
		case s.pending <- event:
		default:
			s.log.Warn("Dropping Slack event, pending buffer is full", "channel", event.Channel)
		}
	}
}

// Read drains the pending buffer. A stopped client is reported only by a
// Read that finds the buffer empty.
func (s *socketSession) Read(ctx context.Context) ([]Event, error) {
	var events []Event
	for {
		select {
		case <-ctx.Done():
			return events, ctx.Err()
		case event := <-s.pending:
			events = append(events, event)
		default:
			if len(events) > 0 {
				return events, nil
			}
			select {
			case err := <-s.failed:
				return events, err
			default:
				return events, nil
			}
		}
	}
}

func (s *socketSession) Identity(ctx context.Context) (string, error) {
	resp, err := s.api.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("auth.test: %w", err)
	}
	if strings.TrimSpace(resp.UserID) == "" {
		return "", errors.New("auth.test returned empty user id")
	}

	return resp.UserID, nil
}

func (s *socketSession) Post(ctx context.Context, channel string, text string) error {
	_, _, err := s.api.PostMessageContext(ctx, channel,
		slackapi.MsgOptionText(text, false),
		slackapi.MsgOptionPostMessageParameters(slackapi.PostMessageParameters{LinkNames: 1}),
	)
	if err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}

	return nil
}
