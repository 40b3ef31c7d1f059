// Package similarity measures how much a section changed between two filings:
// a token-level edit distance, a normalized similarity score and the mean
// sentiment of the words the later text introduced.
package similarity

import (
	"regexp"
	"strings"
)

var tokenExpr = regexp.MustCompile(`[a-z']+`)

// Tokenize lowercases text and returns its runs of ASCII letters and apostrophes.
func Tokenize(text string) []string {
	return tokenExpr.FindAllString(strings.ToLower(text), -1)
}

// Distance is the Levenshtein distance between two token sequences with unit
// insertion, deletion and substitution costs. It keeps two rows sized to the
// shorter sequence.
func Distance(a, b []string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Score normalizes a distance by the combined length of both sequences.
// Two empty sequences are identical.
func Score(distance, lenA, lenB int) float64 {
	if lenA+lenB == 0 {
		return 1
	}
	return 1 - float64(distance)/float64(lenA+lenB)
}
