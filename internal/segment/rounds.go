package segment

import (
	"fmt"

	"FilingDrift/internal/domain"
)

// RoundCount estimates how many times the item sequence repeats in the
// filing (table of contents, body, cross-reference index...). It is the
// smaller of the occurrence counts of the largest and second-largest
// distinct numerals, or the count of the largest when only one value exists.
func RoundCount(headings []domain.HeadingRecord) (int, error) {
	nums := Numerals(headings)
	if len(nums) == 0 {
		return 0, fmt.Errorf("%w: no item numerals within 1..%d", domain.ErrSegmentation, MaxItemNumeral)
	}

	top := maxInt(nums)
	var (
		topCount    int
		second      = -1
		secondCount int
	)
	for _, n := range nums {
		if n == top {
			topCount++
		} else if n > second {
			second = n
		}
	}
	if second < 0 {
		return topCount, nil
	}
	for _, n := range nums {
		if n == second {
			secondCount++
		}
	}
	return min(topCount, secondCount), nil
}

// BuildRounds walks the canonical sequence once per round and picks, for each
// label, the first heading after the previously matched line. The cursor
// carries over between rounds, so each round starts where the previous one
// ended.
func BuildRounds(canonical []string, headings []domain.HeadingRecord, rounds int) [][]domain.HeadingRecord {
	out := make([][]domain.HeadingRecord, 0, rounds)
	last := 0

	for r := 0; r < rounds; r++ {
		var candidate []domain.HeadingRecord
		for _, label := range canonical {
			for _, h := range headings {
				if h.Label == label && h.LineNo > last {
					candidate = append(candidate, h)
					last = h.LineNo
					break
				}
			}
		}
		out = append(out, candidate)
	}

	return out
}
