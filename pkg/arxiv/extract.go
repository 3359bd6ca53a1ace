package arxiv

import (
	"regexp"
	"strings"
)

// linkPattern matches any non-whitespace http(s) URL that ends in a digit.
var linkPattern = regexp.MustCompile(`(https?://[^\s]+[0-9]+)`)

// ExtractIDs pulls arXiv identifiers out of free text.
//
// Candidates are URL-shaped substrings ending in a digit that contain the
// literal "arxiv". The identifier is the final path segment with anything from
// ".pdf" onward removed. Order is preserved and duplicates are kept.
func ExtractIDs(text string) []string {
	links := linkPattern.FindAllString(text, -1)

	ids := make([]string, 0, len(links))
	for _, link := range links {
		if !strings.Contains(link, "arxiv") {
			continue
		}

		id := link[strings.LastIndex(link, "/")+1:]
		id, _, _ = strings.Cut(id, ".pdf")
		ids = append(ids, id)
	}

	return ids
}
