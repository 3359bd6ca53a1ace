package summarize

import (
	_ "embed"
	"strings"
)

//go:embed stopwords/english.txt
var englishStopWords string

func stopWordSet() map[string]struct{} {
	words := strings.Fields(englishStopWords)
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}

	return set
}
