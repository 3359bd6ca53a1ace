package command

import (
	"context"
	"fmt"
	"strings"

	"arxivbot/pkg/arxiv"
	"arxivbot/pkg/summarize"
)

// Formatter renders one paper as a reply block.
type Formatter struct {
	Summarizer summarize.Summarizer
	// Sentences bounds the summary length. Zero means the summarizer default.
	Sentences int
}

// Format renders paper as:
//
//	Title: <title>
//	Authors: <a>, <b>
//
//	Abstract (auto-summarized): <summary>
//
//	PDF: <pdf url>
//
// Newlines in the abstract become spaces. When summarize is false, or no
// summarizer is set, the abstract is used as is.
func (f Formatter) Format(ctx context.Context, paper arxiv.Paper, summarize bool) (string, error) {
	abstract := strings.ReplaceAll(paper.Summary, "\n", " ")
	if summarize && f.Summarizer != nil {
		summary, err := f.Summarizer.Summarize(ctx, abstract, f.Sentences)
		if err != nil {
			return "", fmt.Errorf("summarize %s: %w", paper.ID, err)
		}
		abstract = summary
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", paper.Title)
	fmt.Fprintf(&b, "Authors: %s\n", strings.Join(paper.Authors, ", "))
	b.WriteString("\nAbstract (auto-summarized): " + abstract + "\n\n")
	fmt.Fprintf(&b, "PDF: %s", paper.PDFURL)

	return b.String(), nil
}
