package segment

import (
	"fmt"

	"FilingDrift/internal/domain"
)

// DefaultStrategy is the chooser used when configuration names none.
const DefaultStrategy = "longest-span"

// Chooser picks one candidate round as the filing's section layout.
type Chooser interface {
	Name() string
	Choose(candidates [][]domain.HeadingRecord) ([]domain.HeadingRecord, error)
}

// LongestSpan prefers the round whose headings cover the most lines, measured
// from its second heading to its last. The first heading is skipped because a
// table of contents often starts right at "Item 1" and would otherwise win.
// Ties keep the earliest round.
type LongestSpan struct{}

var _ Chooser = LongestSpan{}

// Name implements Chooser.
func (LongestSpan) Name() string { return DefaultStrategy }

// Choose implements Chooser. Every candidate must hold at least two headings.
func (LongestSpan) Choose(candidates [][]domain.HeadingRecord) ([]domain.HeadingRecord, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate rounds", domain.ErrSegmentation)
	}

	best, bestSpan := -1, 0
	for i, candidate := range candidates {
		if len(candidate) < 2 {
			return nil, fmt.Errorf("%w: round %d matched %d heading(s)", domain.ErrSegmentation, i+1, len(candidate))
		}
		span := candidate[len(candidate)-1].LineNo - candidate[1].LineNo
		if best < 0 || span > bestSpan {
			best, bestSpan = i, span
		}
	}

	return candidates[best], nil
}

// Registry keeps choosers by name so configuration can select one.
type Registry struct {
	choosers map[string]Chooser
}

// NewRegistry builds a registry holding the built-in choosers.
func NewRegistry() *Registry {
	r := &Registry{choosers: map[string]Chooser{}}
	r.Register(LongestSpan{})
	return r
}

// Register adds or replaces a chooser.
func (r *Registry) Register(c Chooser) {
	if r.choosers == nil {
		r.choosers = map[string]Chooser{}
	}
	r.choosers[c.Name()] = c
}

// Resolve returns a chooser by name; the empty name means DefaultStrategy.
func (r *Registry) Resolve(name string) (Chooser, error) {
	if name == "" {
		name = DefaultStrategy
	}
	if c, ok := r.choosers[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("segmentation strategy %s is not registered", name)
}
