package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"arxivbot/pkg/command"
	"arxivbot/pkg/config"
	"arxivbot/pkg/ui/chat"

	"github.com/spf13/cobra"
)

const defaultArxivEndpoint = "export.arxiv.org"

var chatText string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal reading room",
	Long:  "Starts a terminal UI that answers pasted arXiv links with the same replies the chat channels post.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		// Logs on the terminal would tear the UI, so only errors are shown.
		logging := cfg.Logging
		logging.Level = "error"
		if _, err := initLogger(logging); err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}

		dispatcher, err := newDispatcher(cfg, slog.Default())
		if err != nil {
			fmt.Printf("failed to initialize command pipeline: %v\n", err)
			return
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		lookup := lookupFunc(dispatcher)
		info := chatInfo(cfg)
		if text := strings.TrimSpace(chatText); text != "" {
			err = chat.RunOneShot(ctx, lookup, info, text)
		} else {
			err = chat.RunInteractive(ctx, lookup, info)
		}
		if err != nil {
			fmt.Printf("chat failed: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatText, "text", "t", "", "send one command and exit after the reply")
}

// lookupFunc adapts a command runner to the chat UI.
func lookupFunc(runner commandRunner) chat.LookupFunc {
	return func(ctx context.Context, text string) (chat.Reply, error) {
		result := runner.Handle(ctx, text)
		return chat.Reply{Text: result.Text, Kind: string(result.Kind), Papers: result.Papers}, nil
	}
}

func chatInfo(cfg *config.Config) chat.Info {
	endpoint := strings.TrimSpace(cfg.Arxiv.BaseURL)
	if endpoint == "" {
		endpoint = defaultArxivEndpoint
	}

	return chat.Info{
		Engine:     summaryEngineName(cfg.Summary),
		Maintainer: strings.TrimPrefix(cfg.Bot.Maintainer, "@"),
		Endpoint:   endpoint,
	}
}

var _ commandRunner = (*command.Dispatcher)(nil)
