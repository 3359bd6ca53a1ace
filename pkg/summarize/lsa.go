package summarize

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"github.com/neurosnap/sentences"
	englishsentences "github.com/neurosnap/sentences/english"
	"gonum.org/v1/gonum/mat"
)

// termSmoothing lifts every cell of a non-empty sentence column so that
// absent terms still carry some weight.
const termSmoothing = 0.4

type sentenceTokenizer interface {
	Tokenize(text string) []*sentences.Sentence
}

// LSA is an extractive summarizer based on latent semantic analysis.
//
// Sentences are scored by their weight in the singular value decomposition of
// a term-by-sentence matrix. The best sentences are returned in the order they
// appear in the source text, so the output reads like the original abstract.
// Results are deterministic for a given input.
type LSA struct {
	tokenizer sentenceTokenizer
	stopWords map[string]struct{}
}

// NewLSA loads the English sentence model and stop words.
func NewLSA() (*LSA, error) {
	tokenizer, err := englishsentences.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence tokenizer: %w", err)
	}

	return &LSA{tokenizer: tokenizer, stopWords: stopWordSet()}, nil
}

// Summarize returns up to count sentences of text joined by single spaces.
// Text with count or fewer sentences comes back sentence for sentence.
func (s *LSA) Summarize(_ context.Context, text string, count int) (string, error) {
	if count <= 0 {
		count = DefaultSentences
	}

	sents := s.splitSentences(text)
	if len(sents) <= count {
		return strings.Join(sents, " "), nil
	}

	ranks, ok := s.rank(sents)
	if !ok {
		return strings.Join(sents[:count], " "), nil
	}

	return strings.Join(bestSentences(sents, ranks, count), " "), nil
}

func (s *LSA) splitSentences(text string) []string {
	var out []string
	for _, sentence := range s.tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(sentence.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// rank scores every sentence. It reports false when no term survives stop
// word filtering or the decomposition fails.
func (s *LSA) rank(sents []string) ([]float64, bool) {
	terms := make([][]string, len(sents))
	vocabulary := make(map[string]int)
	for i, sentence := range sents {
		terms[i] = s.terms(sentence)
		for _, term := range terms[i] {
			vocabulary[term] = 0
		}
	}
	if len(vocabulary) == 0 {
		return nil, false
	}

	keys := make([]string, 0, len(vocabulary))
	for term := range vocabulary {
		keys = append(keys, term)
	}
	slices.Sort(keys)
	for i, term := range keys {
		vocabulary[term] = i
	}

	matrix := mat.NewDense(len(keys), len(sents), nil)
	for col, sentenceTerms := range terms {
		for _, term := range sentenceTerms {
			row := vocabulary[term]
			matrix.Set(row, col, matrix.At(row, col)+1)
		}
	}
	normalizeTermFrequency(matrix)

	var svd mat.SVD
	if ok := svd.Factorize(matrix, mat.SVDThin); !ok {
		return nil, false
	}

	sigma := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	ranks := make([]float64, len(sents))
	for j := range sents {
		var sum float64
		for i, value := range sigma {
			weight := v.At(j, i)
			sum += value * value * weight * weight
		}
		ranks[j] = math.Sqrt(sum)
	}

	return ranks, true
}

// terms lowercases, drops stop words and stems the words of one sentence.
func (s *LSA) terms(sentence string) []string {
	words := strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '-'
	})

	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, "'-")
		if word == "" {
			continue
		}
		if _, stop := s.stopWords[word]; stop {
			continue
		}
		out = append(out, english.Stem(word, true))
	}

	return out
}

// normalizeTermFrequency scales each column by its most frequent term.
func normalizeTermFrequency(matrix *mat.Dense) {
	rows, cols := matrix.Dims()
	for col := 0; col < cols; col++ {
		var maxFrequency float64
		for row := 0; row < rows; row++ {
			maxFrequency = math.Max(maxFrequency, matrix.At(row, col))
		}
		if maxFrequency == 0 {
			continue
		}
		for row := 0; row < rows; row++ {
			frequency := matrix.At(row, col) / maxFrequency
			matrix.Set(row, col, termSmoothing+(1-termSmoothing)*frequency)
		}
	}
}

func bestSentences(sents []string, ranks []float64, count int) []string {
	order := make([]int, len(sents))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranks[order[a]] > ranks[order[b]]
	})

	chosen := order[:count]
	slices.Sort(chosen)

	out := make([]string, 0, count)
	for _, idx := range chosen {
		out = append(out, sents[idx])
	}

	return out
}
