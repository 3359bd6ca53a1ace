package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"arxivbot/pkg/bus"
	"arxivbot/pkg/channel"
	"arxivbot/pkg/channel/slack"
	"arxivbot/pkg/channel/telegram"
	"arxivbot/pkg/command"
	"arxivbot/pkg/config"
	"arxivbot/pkg/gateway"

	"github.com/spf13/cobra"
)

const (
	slackChannelName    = "slack"
	telegramChannelName = "telegram"
)

const connectionFailedMessage = "Connection failed. Exception traceback printed above."

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the bot on the configured chat channels",
	Long:  "Connects arxivbot to every enabled channel and serves health and readiness endpoints until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		if _, err := initLogger(cfg.Logging); err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		log := slog.Default().With("component", "cmd.gateway")

		adapters, err := enabledAdapters(cfg, log)
		if err != nil {
			log.Error("Gateway configuration invalid", "error", err)
			return
		}

		dispatcher, err := newDispatcher(cfg, slog.Default())
		if err != nil {
			log.Error("Failed to initialize command pipeline", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		messageBus := bus.NewMessageBus()
		defer messageBus.Close()
		logBusEvents(runCtx, messageBus, log)

		svc, err := gateway.NewService(cfg, dispatcher, adapters, messageBus, log)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		log.Info("Gateway started", "channels", enabledChannelNames(adapters), "maintainer", cfg.Bot.Maintainer, "summary", summaryEngineName(cfg.Summary))
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Gateway runtime failed", "error", err)
			if errors.Is(err, slack.ErrConnect) {
				fmt.Println(connectionFailedMessage)
				stop()
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

func enabledAdapters(cfg *config.Config, log *slog.Logger) ([]channel.Adapter, error) {
	adapters := make([]channel.Adapter, 0, 2)
	failureReply := command.FailureText(cfg.Bot.Maintainer)

	if cfg.Channels.Slack.Enabled {
		adapter, err := slack.NewAdapter(cfg.Channels.Slack, failureReply, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", slackChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if cfg.Channels.Telegram.Enabled {
		adapter, err := telegram.NewAdapter(cfg.Channels.Telegram, failureReply, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", telegramChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		return nil, errors.New("no channels are enabled")
	}

	return adapters, nil
}

func enabledChannelNames(adapters []channel.Adapter) string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}

// logBusEvents subscribes to command lifecycle events and logs them until ctx ends.
func logBusEvents(ctx context.Context, messageBus *bus.MessageBus, log *slog.Logger) {
	events, unsubscribe := messageBus.SubscribeEvents(ctx, 0)

	go func() {
		defer unsubscribe()
		for event := range events {
			log.Debug("Command event",
				"type", event.Type,
				"channel", event.Channel,
				"chat_id", event.ChatID,
				"request_id", event.RequestID,
				"kind", event.Payload["kind"],
				"error", event.Error,
			)
		}
	}()
}
