package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"arxivbot/pkg/bus"
	"arxivbot/pkg/channel"
	"arxivbot/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const commandName = "/arxiv"
const typingRefreshInterval = 4 * time.Second

// maxMessageLength is Telegram's limit for one message, in UTF-16 code units.
const maxMessageLength = 4096

// Adapter bridges Telegram updates into arxivbot commands.
type Adapter struct {
	cfg          config.TelegramConfig
	allowFrom    map[string]struct{}
	failureReply string
	log          *slog.Logger
}

// NewAdapter validates Telegram configuration and constructs an adapter
// instance. failureReply is sent when the handler fails outright.
func NewAdapter(cfg config.TelegramConfig, failureReply string, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("channels.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:          cfg,
		allowFrom:    allowFromSet(cfg.AllowFrom),
		failureReply: failureReply,
		log:          log.With("component", "channel.telegram"),
	}, nil
}

// Name returns the channel identifier used in bus metadata and logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts Telegram long polling and forwards bot commands through the shared channel handler.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	bot, err := telego.NewBot(strings.TrimSpace(a.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	me, err := bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("resolve telegram bot identity: %w", err)
	}

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started", "username", me.Username)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			message := update.Message
			if message == nil {
				continue
			}
			if message.From == nil {
				a.log.Debug("Ignoring message without sender")
				continue
			}

			content, ok := commandText(message.Chat.Type, message.Text, me.Username)
			if !ok {
				continue
			}

			senderID := strconv.FormatInt(message.From.ID, 10)
			if !a.senderAllowed(senderID) {
				a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
				continue
			}

			chatID := strconv.FormatInt(message.Chat.ID, 10)
			inbound := bus.InboundMessage{
				Channel:    channelName,
				SenderID:   senderID,
				ChatID:     chatID,
				SessionKey: sessionKey(chatID),
				Content:    content,
				Metadata: map[string]string{
					"update_id": strconv.Itoa(update.UpdateID),
				},
			}
			a.log.Info("Received command", "chat_id", chatID, "sender_id", senderID, "content", channel.PreviewText(content))

			stopTyping := a.startTypingIndicator(ctx, bot, message.Chat.ID)

			outbound, err := handler(ctx, inbound)
			stopTyping()
			if err != nil {
				a.log.Error("Failed to process command", "error", err)
				outbound = bus.OutboundMessage{Content: a.failureReply}
			}

			responseText := channel.ReplyText(outbound)
			if responseText == "" {
				continue
			}
			a.log.Info("Sending reply", "chat_id", chatID, "content", channel.PreviewText(responseText))

			for _, part := range splitMessage(responseText, maxMessageLength) {
				if _, err := bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), part)); err != nil {
					a.log.Error("Failed to send telegram message", "error", err)
					break
				}
			}
		}
	}
}

// commandText decides whether a message is addressed to the bot and returns
// the command with the address stripped. Private chats are always
// addressed. Group messages must start with @username or /arxiv.
func commandText(chatType string, text string, username string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if rest, ok := cutMention(text, username); ok {
		return rest, true
	}
	if rest, ok := cutCommand(text, username); ok {
		return rest, true
	}
	if chatType == telego.ChatTypePrivate {
		return text, true
	}

	return "", false
}

func cutMention(text string, username string) (string, bool) {
	if username == "" {
		return "", false
	}

	mention := "@" + username
	if len(text) < len(mention) || !strings.EqualFold(text[:len(mention)], mention) {
		return "", false
	}

	rest := text[len(mention):]
	if rest != "" && !startsWithSpace(rest) {
		return "", false
	}

	return strings.TrimSpace(strings.TrimLeft(rest, ",:")), true
}

// cutCommand accepts "/arxiv" and "/arxiv@username".
func cutCommand(text string, username string) (string, bool) {
	head, rest, _ := strings.Cut(text, " ")
	name, target, addressed := strings.Cut(head, "@")
	if name != commandName {
		return "", false
	}
	if addressed && !strings.EqualFold(target, username) {
		return "", false
	}

	return strings.TrimSpace(rest), true
}

func startsWithSpace(text string) bool {
	switch text[0] {
	case ' ', '\t', '\n', ',', ':':
		return true
	}
	return false
}

// splitMessage breaks text into parts of at most limit UTF-16 code units.
// Paragraphs are kept together where they fit; longer ones are cut at rune
// boundaries.
func splitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if part := strings.TrimSpace(current.String()); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
		currentLen = 0
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		for _, piece := range cutRunes(paragraph, limit) {
			pieceLen := utf16Len(piece)
			sep := 0
			if current.Len() > 0 {
				sep = 2
			}
			if currentLen+sep+pieceLen > limit {
				flush()
				sep = 0
			}
			if sep > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
			currentLen += sep + pieceLen
		}
	}
	flush()

	return parts
}

// cutRunes splits text into pieces of at most limit UTF-16 code units.
func cutRunes(text string, limit int) []string {
	var pieces []string
	start, size := 0, 0
	for i, r := range text {
		n := utf16.RuneLen(r)
		if size+n > limit {
			pieces = append(pieces, text[start:i])
			start, size = i, 0
		}
		size += n
	}

	return append(pieces, text[start:])
}

func utf16Len(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// senderAllowed checks whether a sender is permitted by allow_from config.
//
// When no allow list is configured, all senders are accepted.
func (a *Adapter) senderAllowed(senderID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

// sessionKey maps one Telegram chat to one serialization namespace.
func sessionKey(chatID string) string {
	return "telegram:" + strings.TrimSpace(chatID)
}

// allowFromSet normalizes allow_from values into a lookup set.
func allowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

// startTypingIndicator sends an initial typing action and refreshes it periodically
// until the returned cancel function is called.
func (a *Adapter) startTypingIndicator(ctx context.Context, bot *telego.Bot, chatID int64) context.CancelFunc {
	typingCtx, cancel := context.WithCancel(ctx)

	sendTyping := func() {
		if err := bot.SendChatAction(typingCtx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping)); err != nil && typingCtx.Err() == nil {
			a.log.Debug("Failed to send typing indicator", "chat_id", chatID, "error", err)
		}
	}

	sendTyping()

	go func() {
		ticker := time.NewTicker(typingRefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-typingCtx.Done():
				return
			case <-ticker.C:
				sendTyping()
			}
		}
	}()

	return cancel
}
