package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Reply is one bot answer shown in the chat log.
type Reply struct {
	Text   string
	Kind   string
	Papers int
}

// LookupFunc runs one bot command.
type LookupFunc func(ctx context.Context, text string) (Reply, error)

// Info describes the bot setup shown in the header.
type Info struct {
	Engine     string
	Maintainer string
	Endpoint   string
}

func RunInteractive(ctx context.Context, lookupFn LookupFunc, info Info) error {
	model := newModel(ctx, lookupFn, modeInteractive, "", info)
	program := tea.NewProgram(model, tea.WithMouseCellMotion())
	_, err := program.Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(renderGoodbyeBanner())
	return nil
}

func RunOneShot(ctx context.Context, lookupFn LookupFunc, info Info, text string) error {
	model := newModel(ctx, lookupFn, modeOneShot, text, info)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("88")).
		Padding(1, 2)

	return style.Render("📚 Thanks for using arxivbot")
}
