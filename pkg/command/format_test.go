package command

import (
	"context"
	"errors"
	"testing"

	"arxivbot/pkg/arxiv"
)

type stubSummarizer struct {
	summary string
	err     error

	gotText  string
	gotCount int
}

func (s *stubSummarizer) Summarize(_ context.Context, text string, count int) (string, error) {
	s.gotText = text
	s.gotCount = count
	return s.summary, s.err
}

func testPaper() arxiv.Paper {
	return arxiv.Paper{
		ID:      "1111.2222",
		Title:   "T",
		Authors: []string{"A", "B"},
		Summary: "S",
		PDFURL:  "P",
	}
}

func TestFormatWithoutSummary(t *testing.T) {
	got, err := Formatter{}.Format(context.Background(), testPaper(), false)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	want := "Title: T\nAuthors: A, B\n\nAbstract (auto-summarized): S\n\nPDF: P"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatCollapsesAbstractNewlines(t *testing.T) {
	paper := testPaper()
	paper.Summary = "line one\nline two"

	got, err := Formatter{}.Format(context.Background(), paper, false)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	want := "Title: T\nAuthors: A, B\n\nAbstract (auto-summarized): line one line two\n\nPDF: P"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatUsesSummarizer(t *testing.T) {
	stub := &stubSummarizer{summary: "short"}
	paper := testPaper()
	paper.Summary = "a\nb"

	got, err := Formatter{Summarizer: stub, Sentences: 2}.Format(context.Background(), paper, true)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	if stub.gotText != "a b" || stub.gotCount != 2 {
		t.Fatalf("summarizer got (%q, %d), want (%q, 2)", stub.gotText, stub.gotCount, "a b")
	}
	want := "Title: T\nAuthors: A, B\n\nAbstract (auto-summarized): short\n\nPDF: P"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatSummarizerError(t *testing.T) {
	stub := &stubSummarizer{err: errors.New("boom")}

	if _, err := (Formatter{Summarizer: stub}).Format(context.Background(), testPaper(), true); err == nil {
		t.Fatal("expected summarizer error")
	}
}
