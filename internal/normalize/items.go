package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	itemHeadExpr     = regexp.MustCompile(`(?i)\bitems?[ \t\x{00a0}]*\d+[a-z]?[ \t\x{00a0}]*\.`)
	itemNoSpaceExpr  = regexp.MustCompile(`(?i)\b(items?)(\d)`)
	itemNumberExpr   = regexp.MustCompile(`(?i)^items?\s+\d+$`)
	letterSuffixExpr = regexp.MustCompile(`^[A-Za-z]\.`)
)

// IsolateHeadings moves every "Item N." pattern that is preceded by other text
// on its line onto a line of its own.
func IsolateHeadings(text string) string {
	locs := itemHeadExpr.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var (
		b    strings.Builder
		last int
	)
	b.Grow(len(text) + len(locs))

	for _, loc := range locs {
		start := loc[0]
		lineStart := strings.LastIndexByte(text[:start], '\n') + 1
		if strings.TrimSpace(text[lineStart:start]) == "" {
			continue
		}
		b.WriteString(strings.TrimRightFunc(text[last:start], unicode.IsSpace))
		b.WriteByte('\n')
		last = start
	}
	b.WriteString(text[last:])
	return b.String()
}

// RepairHeadings fixes headings that layout tags split across lines:
// "I" / "tem 1." is rejoined, "Item1" gains a space, a bare "Item" line is
// merged with the number on the next line, and "Item 1" / "A." becomes "Item 1A.".
func RepairHeadings(text string) string {
	lines := strings.Split(text, "\n")
	lines = mergeSplitI(lines)
	for i, line := range lines {
		lines[i] = itemNoSpaceExpr.ReplaceAllString(line, "${1} ${2}")
	}
	lines = mergeItemNumber(lines)
	lines = mergeItemSuffix(lines)
	return strings.Join(lines, "\n")
}

func mergeSplitI(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "I" && i+1 < len(lines) {
			next := strings.TrimLeftFunc(lines[i+1], unicode.IsSpace)
			if strings.HasPrefix(next, "tem") || strings.HasPrefix(next, "TEM") {
				out = append(out, "I"+next)
				i++
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

func mergeItemNumber(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if (strings.EqualFold(line, "item") || strings.EqualFold(line, "items")) && i+1 < len(lines) {
			next := strings.TrimLeftFunc(lines[i+1], unicode.IsSpace)
			if next != "" && next[0] >= '0' && next[0] <= '9' {
				out = append(out, line+" "+next)
				i++
				continue
			}
		}
		out = append(out, lines[i])
	}
	return out
}

func mergeItemSuffix(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if itemNumberExpr.MatchString(line) && i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if letterSuffixExpr.MatchString(next) || strings.HasPrefix(next, ".") {
				out = append(out, line+next)
				i++
				continue
			}
		}
		out = append(out, lines[i])
	}
	return out
}
