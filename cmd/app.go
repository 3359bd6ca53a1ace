package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"arxivbot/pkg/arxiv"
	"arxivbot/pkg/command"
	"arxivbot/pkg/config"
	"arxivbot/pkg/logger"
	"arxivbot/pkg/summarize"
)

// initLogger builds the configured logger and installs it as the slog default.
func initLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	appLogger, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	slog.SetDefault(appLogger)
	return appLogger, nil
}

// newDispatcher wires the arXiv client, summarizer and formatter into one
// command dispatcher.
func newDispatcher(cfg *config.Config, log *slog.Logger) (*command.Dispatcher, error) {
	formatter := command.Formatter{Sentences: cfg.Summary.Sentences}
	if !cfg.Summary.Disabled {
		summarizer, err := summarize.New(cfg.Summary)
		if err != nil {
			return nil, fmt.Errorf("initialize summarizer: %w", err)
		}
		formatter.Summarizer = summarizer
	}

	dispatcher, err := command.NewDispatcher(arxiv.NewClient(cfg.Arxiv, log), command.Options{
		Formatter:  formatter,
		Summarize:  !cfg.Summary.Disabled,
		Maintainer: cfg.Bot.Maintainer,
		Log:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize dispatcher: %w", err)
	}

	return dispatcher, nil
}

// summaryEngineName reports the summarizer in effect for display.
func summaryEngineName(cfg config.SummaryConfig) string {
	if cfg.Disabled {
		return "off"
	}

	engine := strings.ToLower(strings.TrimSpace(cfg.Engine))
	if engine == "" {
		return "lsa"
	}

	return engine
}
