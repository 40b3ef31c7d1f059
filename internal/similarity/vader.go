package similarity

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"

	"FilingDrift/internal/ports"
)

// VaderScorer scores words with the VADER lexicon and returns the compound
// polarity in [-1, 1].
type VaderScorer struct {
	mu       sync.Mutex
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ ports.SentimentScorer = (*VaderScorer)(nil)

// NewVaderScorer loads the lexicon bundled with govader.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score implements ports.SentimentScorer.
func (v *VaderScorer) Score(word string) float64 {
	word = strings.TrimSpace(word)
	if word == "" {
		return 0
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.analyzer.PolarityScores(word).Compound
}
