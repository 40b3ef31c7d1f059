package segment

import (
	"fmt"
	"strconv"

	"FilingDrift/internal/domain"
)

// MaxItemNumeral bounds the numerals taken into account; larger values are
// page numbers or exhibit references picked up by the heading scan.
const MaxItemNumeral = 20

var (
	basePrefix = []string{"1", "1A", "1B", "1C", "1D", "2", "3", "4", "5", "6", "7", "7A", "8"}
	suffixes   = []string{"", "A", "B", "C"}
)

// Numerals returns the integer part of every heading label, in heading order,
// dropping values above MaxItemNumeral.
func Numerals(headings []domain.HeadingRecord) []int {
	nums := make([]int, 0, len(headings))
	for _, h := range headings {
		digits := make([]byte, 0, len(h.Label))
		for i := 0; i < len(h.Label); i++ {
			if c := h.Label[i]; c >= '0' && c <= '9' {
				digits = append(digits, c)
			}
		}
		if len(digits) == 0 {
			continue
		}
		n, err := strconv.Atoi(string(digits))
		if err != nil || n > MaxItemNumeral {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

// CanonicalSequence builds the expected order of section labels for the
// filing: the fixed 10-K prefix up to Item 8, then N, NA, NB, NC for every
// N from 9 to the largest numeral seen.
func CanonicalSequence(headings []domain.HeadingRecord) ([]string, error) {
	nums := Numerals(headings)
	if len(nums) == 0 {
		return nil, fmt.Errorf("%w: no item numerals within 1..%d", domain.ErrSegmentation, MaxItemNumeral)
	}

	top := maxInt(nums)
	seq := append([]string(nil), basePrefix...)
	for n := 9; n <= top; n++ {
		for _, suffix := range suffixes {
			seq = append(seq, strconv.Itoa(n)+suffix)
		}
	}
	return seq, nil
}

func maxInt(values []int) int {
	top := values[0]
	for _, v := range values[1:] {
		if v > top {
			top = v
		}
	}
	return top
}
