package command

import (
	"context"
	"errors"
	"fmt"
	"net"

	"arxivbot/pkg/arxiv"
)

// Kind classifies how a command ended.
type Kind string

const (
	KindOK       Kind = "ok"
	KindNotFound Kind = "not_found"
	KindFetch    Kind = "fetch_error"
	KindNetwork  Kind = "network_error"
	KindFormat   Kind = "format_error"
	KindInternal Kind = "internal_error"
)

// Error is a failure tagged with the pipeline stage that produced it.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}

	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// KindFromError returns the kind carried by err, if any.
func KindFromError(err error) Kind {
	if err == nil {
		return KindOK
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Kind
	}

	return KindInternal
}

// fetchError tags a metadata lookup failure as a network or fetch error.
func fetchError(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if !arxiv.IsStatus(err) && (errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)) {
		return &Error{Kind: KindNetwork, Err: err}
	}

	return &Error{Kind: KindFetch, Err: err}
}
