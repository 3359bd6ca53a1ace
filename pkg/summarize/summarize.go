// Package summarize shortens paper abstracts.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"arxivbot/pkg/config"
)

// DefaultSentences is the summary length used when a caller passes no count.
const DefaultSentences = 3

// Summarizer condenses text to at most count sentences.
type Summarizer interface {
	Summarize(ctx context.Context, text string, count int) (string, error)
}

// New resolves the configured summarization engine.
func New(cfg config.SummaryConfig) (Summarizer, error) {
	engine := strings.ToLower(strings.TrimSpace(cfg.Engine))
	if engine == "" {
		engine = "lsa"
	}

	slog.Default().With("component", "summarize.factory").Debug("Resolving summarizer", "engine", engine)

	switch engine {
	case "lsa":
		return NewLSA()
	case "openai":
		return NewOpenAI(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unsupported summary engine: %s", engine)
	}
}
