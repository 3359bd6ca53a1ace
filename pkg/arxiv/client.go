package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"arxivbot/pkg/config"

	"github.com/mmcdole/gofeed/atom"
)

const (
	defaultBaseURL   = "https://export.arxiv.org/api/query"
	defaultUserAgent = "arxivbot/1.0"
	errorEntryMarker = "/api/errors"
)

// Client resolves arXiv identifiers through the arXiv Atom query API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	log       *slog.Logger
}

// NewClient builds a client from arxiv config. A zero config targets the public API.
func NewClient(cfg config.ArxivConfig, log *slog.Logger) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second},
		log:       log.With("component", "arxiv.client"),
	}
}

// Query fetches metadata for ids in a single request.
//
// Identifiers the API cannot resolve are left out of the result. An empty id
// list returns no papers without touching the network.
func (c *Client) Query(ctx context.Context, ids []string) ([]Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("id_list", strings.Join(ids, ","))
	params.Set("max_results", strconv.Itoa(len(ids)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	startedAt := time.Now()
	c.log.Debug("arXiv request started", "ids", len(ids))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	feed, err := (&atom.Parser{}).Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse arXiv response: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		paper, ok := paperFromEntry(entry)
		if !ok {
			continue
		}
		papers = append(papers, paper)
	}

	c.log.Debug("arXiv request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "requested", len(ids), "resolved", len(papers))

	return papers, nil
}

// StatusError reports a non-200 answer from the arXiv API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("arXiv API returned HTTP %d", e.Code)
	}

	return fmt.Sprintf("arXiv API returned HTTP %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err carries an arXiv API status error.
func IsStatus(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}

func paperFromEntry(entry *atom.Entry) (Paper, bool) {
	if entry == nil || strings.Contains(entry.ID, errorEntryMarker) {
		return Paper{}, false
	}

	title := collapseSpace(entry.Title)
	if title == "" {
		return Paper{}, false
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, author := range entry.Authors {
		if author == nil {
			continue
		}
		if name := strings.TrimSpace(author.Name); name != "" {
			authors = append(authors, name)
		}
	}

	return Paper{
		ID:      baseID(entry.ID),
		Title:   title,
		Authors: authors,
		Summary: strings.TrimSpace(entry.Summary),
		PDFURL:  pdfLink(entry),
	}, true
}

// pdfLink prefers the link the API marks as the PDF and otherwise derives it
// from the abstract URL.
func pdfLink(entry *atom.Entry) string {
	for _, link := range entry.Links {
		if link == nil {
			continue
		}
		if link.Title == "pdf" || link.Type == "application/pdf" {
			return strings.TrimSpace(link.Href)
		}
	}

	return strings.Replace(strings.TrimSpace(entry.ID), "/abs/", "/pdf/", 1)
}

// baseID pulls the identifier from an entry URL such as
// "http://arxiv.org/abs/2301.07041v1" and drops the version suffix.
func baseID(entryURL string) string {
	const prefix = "/abs/"
	id := strings.TrimSpace(entryURL)
	if idx := strings.Index(id, prefix); idx >= 0 {
		id = id[idx+len(prefix):]
	}

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}

	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
