package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"arxivbot/pkg/command"
	"arxivbot/pkg/config"

	"github.com/spf13/cobra"
)

var lookupText string

// commandRunner runs one bot command.
type commandRunner interface {
	Handle(ctx context.Context, text string) command.Result
}

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup [text]",
	Short: "Run one bot command locally and print the reply",
	Long:  "Runs text through the same extract, fetch and summarize pipeline the chat channels use. Without text, reads commands from stdin until EOF.",
	Run: func(cmd *cobra.Command, args []string) {
		text := resolveLookupText(args)

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		if _, err := initLogger(cfg.Logging); err != nil {
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

		if text != "" {
			fmt.Println(dispatcher.Handle(ctx, text).Text)
			return
		}

		runLookupLoop(ctx, dispatcher, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVarP(&lookupText, "text", "t", "", "command text to run")
}

func resolveLookupText(args []string) string {
	if value := strings.TrimSpace(lookupText); value != "" {
		return value
	}

	return strings.TrimSpace(strings.Join(args, " "))
}

// runLookupLoop answers one command per input line.
func runLookupLoop(ctx context.Context, runner commandRunner, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "👨🏻 ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				fmt.Fprintf(out, "input error: %v\n", err)
			}
			return
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if isExitCommand(text) {
			return
		}

		printReply(out, runner.Handle(ctx, text).Text)
	}
}

func printReply(out io.Writer, reply string) {
	lines := replyLines(reply)
	for _, line := range lines {
		fmt.Fprintf(out, "📚 %s\n", line)
	}
	if len(lines) > 0 {
		fmt.Fprintln(out)
	}
}

func replyLines(reply string) []string {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "\n")
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", ":q":
		return true
	default:
		return false
	}
}
