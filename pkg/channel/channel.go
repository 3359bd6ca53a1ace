package channel

import (
	"context"
	"strings"
	"unicode/utf8"

	"arxivbot/pkg/bus"
)

const messagePreviewLimit = 240

// Handler processes one inbound command and returns the reply to post.
type Handler func(context.Context, bus.InboundMessage) (bus.OutboundMessage, error)

// Adapter bridges one chat transport (for example Slack) into arxivbot.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}

// ReplyText picks the text to post for an outbound message. Error text is
// for logs and never posted.
func ReplyText(outbound bus.OutboundMessage) string {
	return strings.TrimSpace(outbound.Content)
}

// PreviewText returns a bounded log-safe preview of message text.
func PreviewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	cut := messagePreviewLimit
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}

	return trimmed[:cut] + "..."
}
