package analysis

import "strings"

// SentimentScorer assigns a sentiment label and polarity score to text using
// lexicon matching. It is pure and deterministic: identical text and
// thresholds always produce the same result.
type SentimentScorer struct {
	positiveThreshold float64
	negativeThreshold float64
	positive          []string
	negative          []string
}

// NewSentimentScorer creates a scorer with the built-in lexicon and the given
// thresholds: score >= positiveThreshold labels positive, score <=
// negativeThreshold labels negative, anything between is neutral.
func NewSentimentScorer(positiveThreshold, negativeThreshold float64) *SentimentScorer {
	return &SentimentScorer{
		positiveThreshold: positiveThreshold,
		negativeThreshold: negativeThreshold,
		positive:          positiveLexicon,
		negative:          negativeLexicon,
	}
}

// Score computes the polarity of text as (positive - negative) / matched over
// lexicon hits, yielding a score in [-1, 1]. Text with no lexicon hits — and
// empty or unusable text — scores 0 and labels neutral rather than failing.
func (s *SentimentScorer) Score(text string) (Label, float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Neutral, 0
	}

	pos := countMatches(text, s.positive)
	neg := countMatches(text, s.negative)
	matched := pos + neg
	if matched == 0 {
		return Neutral, 0
	}

	score := float64(pos-neg) / float64(matched)
	switch {
	case score >= s.positiveThreshold:
		return Positive, score
	case score <= s.negativeThreshold:
		return Negative, score
	default:
		return Neutral, score
	}
}

// countMatches sums occurrences of every lexicon term in text.
func countMatches(text string, lexicon []string) int {
	count := 0
	for _, term := range lexicon {
		count += strings.Count(text, term)
	}
	return count
}
