// Package segment recovers the "Item" section structure of a normalized 10-K
// and slices the text into one section per chosen heading.
package segment

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"FilingDrift/internal/domain"
)

var headingExpr = regexp.MustCompile(`(?i)^(items?)\b\s*([0-9].*)$`)

// ExtractHeadings scans normalized text line by line and returns every line
// that opens with "Item"/"Items" followed by a number. Consecutive records
// carrying the same label collapse into the first one.
func ExtractHeadings(text string) []domain.HeadingRecord {
	var headings []domain.HeadingRecord

	for i, line := range strings.Split(text, "\n") {
		label, ok := headingLabel(line)
		if !ok {
			continue
		}
		if n := len(headings); n > 0 && headings[n-1].Label == label {
			continue
		}
		headings = append(headings, domain.HeadingRecord{Label: label, LineNo: i + 1})
	}

	return headings
}

// headingLabel returns the upper-cased label of a heading line such as
// "Item 1A. Risk Factors" -> "1A".
func headingLabel(line string) (string, bool) {
	m := headingExpr.FindStringSubmatch(foldSpace(line))
	if m == nil {
		return "", false
	}

	token := strings.Fields(m[2])[0]
	if i := strings.IndexByte(token, '.'); i >= 0 {
		token = token[:i]
	}
	if token == "" {
		return "", false
	}
	return strings.ToUpper(token), true
}

// foldSpace maps compatibility characters (no-break and figure spaces,
// full-width digits) to their plain forms and collapses whitespace runs.
func foldSpace(line string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(line)), " ")
}
