package slack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDirectMention(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		userID  string
		message string
		ok      bool
	}{
		{name: "user mention", text: "<@U123> hello there  ", userID: "U123", message: "hello there", ok: true},
		{name: "enterprise mention", text: "<@W9>check", userID: "W9", message: "check", ok: true},
		{name: "first mention only", text: "<@U1> <@U2> hi", userID: "U1", message: "<@U2> hi", ok: true},
		{name: "empty id", text: "<@> hi", userID: "", message: "hi", ok: true},
		{name: "remainder stops at newline", text: "<@U1> look\nhttps://arxiv.org/abs/1", userID: "U1", message: "look", ok: true},
		{name: "mention only then newline", text: "<@U1>\nhttps://arxiv.org/abs/1", userID: "U1", message: "", ok: true},
		{name: "id does not cross newline", text: "<@U1\n2> x", ok: false},
		{name: "mention not first", text: "hi <@U1>", ok: false},
		{name: "unknown id prefix", text: "<@B12> hi", ok: false},
		{name: "plain text", text: "hello", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			userID, message, ok := ParseDirectMention(tc.text)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.userID, userID)
			require.Equal(t, tc.message, message)
		})
	}
}

func TestParseCommand(t *testing.T) {
	const botID = "UBOT"

	tests := []struct {
		name  string
		event Event
		want  Command
		ok    bool
	}{
		{
			name:  "direct mention",
			event: Event{Type: "message", Text: "<@UBOT> read https://arxiv.org/abs/1234.5678", Channel: "C1", User: "U7"},
			want:  Command{Text: "read https://arxiv.org/abs/1234.5678", Channel: "C1", User: "U7"},
			ok:    true,
		},
		{
			name:  "link on second line is not part of the command",
			event: Event{Type: "message", Text: "<@UBOT> hi\nhttps://arxiv.org/abs/1234.5678", Channel: "C1"},
			want:  Command{Text: "hi", Channel: "C1"},
			ok:    true,
		},
		{
			name:  "mention of someone else",
			event: Event{Type: "message", Text: "<@UOTHER> hi", Channel: "C1"},
		},
		{
			name:  "subtyped message",
			event: Event{Type: "message", Subtype: "bot_message", Text: "<@UBOT> hi", Channel: "C1"},
		},
		{
			name:  "not a message",
			event: Event{Type: "reaction_added", Text: "<@UBOT> hi", Channel: "C1"},
		},
		{
			name:  "mention in the middle",
			event: Event{Type: "message", Text: "hey <@UBOT> hi", Channel: "C1"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseCommand(tc.event, botID)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseCommandRequiresBotID(t *testing.T) {
	_, ok := ParseCommand(Event{Type: "message", Text: "<@> hi"}, "")
	require.False(t, ok)
}

func TestParseCommandsKeepsOrder(t *testing.T) {
	events := []Event{
		{Type: "message", Text: "<@UBOT> first", Channel: "C1"},
		{Type: "message", Text: "unrelated", Channel: "C1"},
		{Type: "message", Text: "<@UBOT> second", Channel: "C2"},
	}

	commands := ParseCommands(events, "UBOT")

	require.Equal(t, []Command{
		{Text: "first", Channel: "C1"},
		{Text: "second", Channel: "C2"},
	}, commands)
	require.Empty(t, ParseCommands(nil, "UBOT"))
}
