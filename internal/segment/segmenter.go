package segment

import (
	"fmt"
	"strings"

	"FilingDrift/internal/domain"
)

// Result carries every intermediate product of a segmentation so callers can
// report on it.
type Result struct {
	Headings   []domain.HeadingRecord   `json:"headings"`
	Canonical  []string                 `json:"canonical"`
	Rounds     int                      `json:"rounds"`
	Candidates [][]domain.HeadingRecord `json:"candidates"`
	Chosen     []domain.HeadingRecord   `json:"chosen"`
	Sections   []domain.Section         `json:"sections"`
}

// Segmenter turns normalized text into sections.
type Segmenter struct {
	chooser Chooser
}

// NewSegmenter builds a segmenter around a chooser; nil selects LongestSpan.
func NewSegmenter(chooser Chooser) *Segmenter {
	if chooser == nil {
		chooser = LongestSpan{}
	}
	return &Segmenter{chooser: chooser}
}

// Segment runs heading extraction, canonical sequencing, round selection and
// slicing. Every failure wraps domain.ErrSegmentation.
func (s *Segmenter) Segment(text string) (Result, error) {
	var res Result

	res.Headings = ExtractHeadings(text)
	if len(res.Headings) == 0 {
		return res, fmt.Errorf("%w: no item headings found", domain.ErrSegmentation)
	}

	var err error
	if res.Canonical, err = CanonicalSequence(res.Headings); err != nil {
		return res, err
	}
	if res.Rounds, err = RoundCount(res.Headings); err != nil {
		return res, err
	}

	res.Candidates = BuildRounds(res.Canonical, res.Headings, res.Rounds)
	if res.Chosen, err = s.chooser.Choose(res.Candidates); err != nil {
		return res, err
	}

	res.Sections = Slice(text, res.Chosen)
	return res, nil
}

// Slice cuts text into sections: each chosen heading owns the lines from its
// own line up to the next chosen heading, and the last one runs to the end.
func Slice(text string, chosen []domain.HeadingRecord) []domain.Section {
	lines := splitLines(text)
	end := len(lines) + 1

	sections := make([]domain.Section, 0, len(chosen))
	for i, h := range chosen {
		next := end
		if i+1 < len(chosen) {
			next = chosen[i+1].LineNo
		}

		start := min(h.LineNo, end)
		next = max(min(next, end), start)

		var b strings.Builder
		for _, line := range lines[start-1 : next-1] {
			b.WriteString(line)
			b.WriteByte('\n')
		}

		sections = append(sections, domain.Section{
			Label:     h.Label,
			StartLine: start,
			EndLine:   next,
			Text:      b.String(),
		})
	}
	return sections
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
