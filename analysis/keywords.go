package analysis

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// KeywordFrequency tokenizes titles and descriptions with Chinese word
// segmentation, counts token frequency corpus-wide, and reports the top-N
// tokens with a per-sentiment-label breakdown.
type KeywordFrequency struct {
	seg       gse.Segmenter
	stopWords map[string]bool
	topN      int
}

// NewKeywordFrequency creates the keyword aggregator. Loading the embedded
// segmentation dictionary can fail, in which case no aggregator is returned.
func NewKeywordFrequency(stopWords []string, topN int) (*KeywordFrequency, error) {
	kf := &KeywordFrequency{
		stopWords: make(map[string]bool, len(stopWords)),
		topN:      topN,
	}
	if err := kf.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("analysis: load segmentation dict: %w", err)
	}
	for _, w := range stopWords {
		kf.stopWords[strings.ToLower(w)] = true
	}
	return kf, nil
}

// Name identifies the aggregate in the report.
func (kf *KeywordFrequency) Name() string {
	return "keywords"
}

// Aggregate counts token frequency over title+description text. Bucket keys
// are tokens; metrics hold the total count and per-label counts. Order is the
// top-N ranking by count, ties broken alphabetically.
func (kf *KeywordFrequency) Aggregate(videos []ScoredVideo) (*Table, error) {
	table := newTable(kf.Name())

	counts := make(map[string]Metrics)
	for _, v := range videos {
		for _, token := range kf.tokenize(v.Title + " " + v.Description) {
			m, ok := counts[token]
			if !ok {
				m = make(Metrics)
				counts[token] = m
			}
			m["count"]++
			m[string(v.Sentiment)]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		ci, cj := counts[tokens[i]]["count"], counts[tokens[j]]["count"]
		if ci != cj {
			return ci > cj
		}
		return tokens[i] < tokens[j]
	})

	if kf.topN > 0 && len(tokens) > kf.topN {
		tokens = tokens[:kf.topN]
	}
	for _, token := range tokens {
		table.Buckets[token] = counts[token]
		table.Order = append(table.Order, token)
	}

	return table, nil
}

// tokenize segments text and drops stop words, single-rune tokens, and
// tokens without any letter.
func (kf *KeywordFrequency) tokenize(text string) []string {
	var tokens []string
	for _, token := range kf.seg.Cut(text, true) {
		token = strings.ToLower(strings.TrimSpace(token))
		if len([]rune(token)) < 2 {
			continue
		}
		if kf.stopWords[token] {
			continue
		}
		if !hasLetter(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
