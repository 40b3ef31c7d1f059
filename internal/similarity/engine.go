package similarity

import (
	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
)

// Engine compares section texts and scores the vocabulary they add.
type Engine struct {
	scorer ports.SentimentScorer
}

// NewEngine builds an engine; a nil scorer yields zero sentiment.
func NewEngine(scorer ports.SentimentScorer) *Engine {
	return &Engine{scorer: scorer}
}

// Compare measures later (A) against earlier (B). The returned record carries
// only the measurements; the caller fills in filer, section and dates.
func (e *Engine) Compare(later, earlier string) domain.SimilarityRecord {
	a := Tokenize(later)
	b := Tokenize(earlier)
	d := Distance(a, b)

	return domain.SimilarityRecord{
		Distance:   d,
		Similarity: Score(d, len(a), len(b)),
		LenA:       len(a),
		LenB:       len(b),
		Sentiment:  e.MeanSentiment(Novelty(a, b)),
	}
}

// Novelty returns the distinct tokens of later that never occur in earlier,
// in order of first appearance.
func Novelty(later, earlier []string) []string {
	seen := make(map[string]struct{}, len(earlier)+len(later))
	for _, tok := range earlier {
		seen[tok] = struct{}{}
	}

	var novel []string
	for _, tok := range later {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		novel = append(novel, tok)
	}
	return novel
}

// MeanSentiment averages the scorer over words; an empty set scores zero.
func (e *Engine) MeanSentiment(words []string) float64 {
	if len(words) == 0 || e.scorer == nil {
		return 0
	}

	var total float64
	for _, w := range words {
		total += e.scorer.Score(w)
	}
	return total / float64(len(words))
}
