// Package command turns one chat command into one reply.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"arxivbot/pkg/arxiv"
)

const (
	ReplyPreamble = "Here is what I found on arXiv: "
	ReplyNotFound = "Don't seem to find an arXiv link..."
)

// Fetcher resolves arXiv identifiers to paper metadata.
type Fetcher interface {
	Query(ctx context.Context, ids []string) ([]arxiv.Paper, error)
}

// Result is the outcome of one command. Text is always set.
type Result struct {
	Text   string
	Kind   Kind
	Papers int
	Err    error
}

// Dispatcher runs extract, fetch and format for a command and never fails:
// every error turns into the same maintainer reply, with the kind kept on
// the Result for logging.
type Dispatcher struct {
	fetcher    Fetcher
	formatter  Formatter
	summarize  bool
	maintainer string
	log        *slog.Logger
}

// Options configures a Dispatcher.
type Options struct {
	Formatter Formatter
	// Summarize enables the auto-summary of abstracts.
	Summarize  bool
	Maintainer string
	Log        *slog.Logger
}

func NewDispatcher(fetcher Fetcher, opts Options) (*Dispatcher, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	maintainer := strings.TrimPrefix(strings.TrimSpace(opts.Maintainer), "@")
	if maintainer == "" {
		return nil, errors.New("maintainer handle is required")
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		fetcher:    fetcher,
		formatter:  opts.Formatter,
		summarize:  opts.Summarize,
		maintainer: maintainer,
		log:        log.With("component", "command.dispatcher"),
	}, nil
}

// FailureReply is the reply sent for any failed command.
func (d *Dispatcher) FailureReply() string {
	return FailureText(d.maintainer)
}

// FailureText is the generic failure reply naming maintainer. Channels post
// it when a command could not be handled at all.
func FailureText(maintainer string) string {
	return fmt.Sprintf("Some exception caught. @%s go debug!", strings.TrimPrefix(strings.TrimSpace(maintainer), "@"))
}

// Handle processes one command text.
func (d *Dispatcher) Handle(ctx context.Context, text string) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = d.failure(&Error{Kind: KindInternal, Err: fmt.Errorf("panic: %v", recovered)})
		}
	}()

	ids := arxiv.ExtractIDs(text)
	if len(ids) == 0 {
		return Result{Text: ReplyNotFound, Kind: KindNotFound}
	}

	papers, err := d.fetcher.Query(ctx, ids)
	if err != nil {
		return d.failure(fetchError(err))
	}

	if len(papers) == 0 {
		d.log.Debug("No papers resolved", "ids", len(ids))
		return Result{Text: ReplyNotFound, Kind: KindNotFound}
	}

	var reply strings.Builder
	reply.WriteString(ReplyPreamble)
	for _, paper := range papers {
		block, err := d.formatter.Format(ctx, paper, d.summarize)
		if err != nil {
			return d.failure(&Error{Kind: KindFormat, Err: err})
		}
		reply.WriteString("\n\n")
		reply.WriteString(block)
	}

	return Result{Text: reply.String(), Kind: KindOK, Papers: len(papers)}
}

func (d *Dispatcher) failure(err error) Result {
	kind := KindFromError(err)
	d.log.Error("Command failed", "kind", kind, "error", err)

	return Result{Text: d.FailureReply(), Kind: kind, Err: err}
}
