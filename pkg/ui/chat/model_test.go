package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestHandleViewportMouseWheelUpDisablesFollowLog(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), nil, modeInteractive, "", Info{})
	m.viewport.Width = 40
	m.viewport.Height = 5
	m.viewport.SetContent(strings.Repeat("line\n", 40))
	m.viewport.GotoBottom()
	m.followLog = true

	previousOffset := m.viewport.YOffset
	handled := m.handleViewportMouse(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if !handled {
		t.Fatal("expected wheel-up mouse event to be handled")
	}
	if m.followLog {
		t.Fatal("expected followLog to be disabled after wheel-up scroll")
	}
	if m.viewport.YOffset >= previousOffset {
		t.Fatalf("expected YOffset to decrease after wheel-up scroll, got %d want < %d", m.viewport.YOffset, previousOffset)
	}
}

func TestHandleViewportMouseWheelDownAtBottomEnablesFollowLog(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), nil, modeInteractive, "", Info{})
	m.viewport.Width = 40
	m.viewport.Height = 5
	m.viewport.SetContent(strings.Repeat("line\n", 40))
	m.viewport.GotoBottom()

	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	m.viewport.SetYOffset(max(0, maxOffset-1))
	m.followLog = false

	handled := m.handleViewportMouse(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	if !handled {
		t.Fatal("expected wheel-down mouse event to be handled")
	}
	if !m.viewport.AtBottom() {
		t.Fatalf("expected viewport to reach bottom, got YOffset=%d", m.viewport.YOffset)
	}
	if !m.followLog {
		t.Fatal("expected followLog to re-enable when wheel-down reaches bottom")
	}
}

func TestHandleViewportMouseIgnoresNonWheelEvents(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), nil, modeInteractive, "", Info{})
	handled := m.handleViewportMouse(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if handled {
		t.Fatal("expected non-wheel mouse event to be ignored")
	}
}

func TestRecordResultCounters(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), nil, modeInteractive, "", Info{})
	m.recordResult(lookupResultMsg{reply: Reply{Text: "Here is what I found", Kind: "ok", Papers: 2}})
	m.recordResult(lookupResultMsg{reply: Reply{Text: "Don't seem to find", Kind: "not_found"}})
	m.recordResult(lookupResultMsg{reply: Reply{Text: "Some exception caught.", Kind: "fetch_error"}})
	m.recordResult(lookupResultMsg{err: errors.New("boom")})

	if m.papers != 2 || m.misses != 1 || m.failures != 2 {
		t.Fatalf("counters papers/misses/failures = %d/%d/%d, want 2/1/2", m.papers, m.misses, m.failures)
	}

	roles := make([]string, 0, len(m.messages))
	for _, message := range m.messages {
		roles = append(roles, message.role)
	}
	want := []string{roleBot, roleNotFound, roleError, roleError}
	if strings.Join(roles, ",") != strings.Join(want, ",") {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	if m.lastErr != "boom" {
		t.Fatalf("lastErr = %q, want boom", m.lastErr)
	}
}

func TestEnterSendsLookup(t *testing.T) {
	t.Parallel()

	var got string
	lookup := func(_ context.Context, text string) (Reply, error) {
		got = text
		return Reply{Text: "reply", Kind: "ok", Papers: 1}, nil
	}

	m := newModel(context.Background(), lookup, modeInteractive, "", Info{})
	m.booting = false
	m.input.SetValue(" https://arxiv.org/abs/1234.5678 ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected lookup command")
	}
	if !m.isLoading {
		t.Fatal("expected loading state after enter")
	}
	if lookupCount(m.messages) != 1 {
		t.Fatalf("lookupCount = %d, want 1", lookupCount(m.messages))
	}

	result := lookupCmd(context.Background(), lookup, "https://arxiv.org/abs/1234.5678")()
	if got != "https://arxiv.org/abs/1234.5678" {
		t.Fatalf("lookup text = %q", got)
	}

	m.Update(result)
	if m.isLoading {
		t.Fatal("expected loading to stop after result")
	}
	if last, ok := m.lastReply(); !ok || last.content != "reply" {
		t.Fatalf("lastReply = %+v, %v", last, ok)
	}
}

func TestOneShotQuitsAfterResult(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), nil, modeOneShot, "hello", Info{})
	_, cmd := m.Update(lookupResultMsg{reply: Reply{Text: "Don't seem to find an arXiv link...", Kind: "not_found"}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if !strings.Contains(m.oneShotView(), "Don't seem to find") {
		t.Fatal("expected reply in one-shot view")
	}
}

func TestIsExitCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "exit", want: true},
		{input: " /exit ", want: true},
		{input: ":q", want: true},
		{input: "QUIT", want: true},
		{input: "https://arxiv.org/abs/1234.5678", want: false},
	}

	for _, tt := range tests {
		if got := isExitCommand(tt.input); got != tt.want {
			t.Fatalf("isExitCommand(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
