// Package normalize reduces raw EDGAR submissions (SGML envelope, HTML and
// inline XBRL markup) to clean line-oriented plain text.
//
// The passes run in a fixed order and later passes assume the earlier ones
// already ran: tag-adjacent line breaks survive unwrapping, attributes are gone
// before tags are matched by name, and layout tags are unwrapped before empty
// paragraphs are collapsed.
package normalize

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
)

const (
	documentStartMarker = "<SEC-DOCUMENT>"
	secondDocumentMark  = "<SEQUENCE>2"
	tagLookback         = 300
)

var (
	attributeExpr = regexp.MustCompile(`(?i)\s+(?:style|id|align)=(?:"[^"]*"|'[^']*')`)

	headExpr    = regexp.MustCompile(`(?is)<head\b[^>]*>.*?</head\s*>`)
	commentExpr = regexp.MustCompile(`(?s)<!--.*?-->`)
	imageExpr   = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	spanExpr    = regexp.MustCompile(`(?i)</?span\b[^>]*>`)
	entity3Expr = regexp.MustCompile(`&#\d{3};`)

	entityReplacer = strings.NewReplacer(
		"&#8216;", "'",
		"&#8217;", "'",
		"&#8220;", `"`,
		"&#8221;", `"`,
		"&#146;", "'",
		"&#39;", "'",
		"&apos;", "'",
		"&nbsp;", " ",
		"&#160;", " ",
	)

	ixOpenExpr      = regexp.MustCompile(`(?i)<ix:[a-z0-9_:.\-]+[^>]*>`)
	ixCloseExpr     = regexp.MustCompile(`(?i)</ix:[a-z0-9_:.\-]+\s*>`)
	layoutOpenExpr  = regexp.MustCompile(`(?i)<(?:html|font|br|hr|b|center|a|table|tr|td)\b[^>]*>`)
	layoutCloseExpr = regexp.MustCompile(`(?i)</(?:html|font|b|center|a|table|tr|td)\s*>`)
	xbrliOpenExpr   = regexp.MustCompile(`(?i)<xbrli:([a-z0-9_:.\-]+)[^>]*>`)

	emptyParagraphExpr = regexp.MustCompile(`(?is)<p\b[^>]*>\s*</p\s*>`)
	emptyDivExpr       = regexp.MustCompile(`(?is)<div\b[^>]*>\s*</div\s*>`)
	paragraphExpr      = regexp.MustCompile(`(?i)<p\b[^>]*>`)

	tagExpr           = regexp.MustCompile(`<[^<>]*>`)
	numericEntityExpr = regexp.MustCompile(`&#(?:\d{1,8}|[xX][0-9A-Fa-f]{1,8});`)
)

// Normalize runs the full cleaning pipeline over a raw filing.
// Empty input is returned unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}

	text := SoftUnwrap(raw)
	text = TrimEnvelope(text)
	text = StripAttributes(text)
	text = RemoveBoilerplate(text)
	text = UnwrapLayoutTags(text)
	text = RemoveXBRLIBlocks(text)
	text = RemoveEmptyElements(text)
	text = BreakBeforeParagraphs(text)
	text = CompactLines(text)
	text = StripResidualMarkup(text)
	text = CompactLines(text)
	text = IsolateHeadings(text)
	text = RepairHeadings(text)
	return text
}

// SoftUnwrap joins a line with the next one unless the first ends with a tag
// or the second starts with one, rebuilding sentences the source hard-wrapped.
func SoftUnwrap(text string) string {
	lines := strings.Split(text, "\n")

	first := strings.TrimSuffix(lines[0], "\r")
	buf := make([]byte, 0, len(text))
	buf = append(buf, first...)
	endsWithTag := lineEndsWithTag(first)

	for _, raw := range lines[1:] {
		next := strings.TrimSuffix(raw, "\r")
		if !endsWithTag && !lineStartsWithTag(next) {
			buf = bytes.TrimRightFunc(buf, unicode.IsSpace)
			buf = append(buf, ' ')
			buf = append(buf, strings.TrimLeftFunc(next, unicode.IsSpace)...)
		} else {
			buf = append(buf, '\n')
			buf = append(buf, next...)
		}
		endsWithTag = lineEndsWithTag(next)
	}

	return string(buf)
}

func lineEndsWithTag(line string) bool {
	s := strings.TrimRightFunc(line, unicode.IsSpace)
	if !strings.HasSuffix(s, ">") {
		return false
	}
	if len(s) > tagLookback {
		s = s[len(s)-tagLookback:]
	}
	return strings.LastIndexByte(s, '<') != -1
}

func lineStartsWithTag(line string) bool {
	return strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "<")
}

// TrimEnvelope keeps the submission from the SEC-DOCUMENT marker onward and
// drops everything from the second embedded document on.
func TrimEnvelope(text string) string {
	if i := strings.Index(text, documentStartMarker); i >= 0 {
		text = text[i:]
	}
	if i := strings.Index(text, secondDocumentMark); i >= 0 {
		text = text[:i]
	}
	return text
}

// StripAttributes removes style, id and align attributes from every tag.
func StripAttributes(text string) string {
	return attributeExpr.ReplaceAllString(text, "")
}

// RemoveBoilerplate drops the document head, comments, images and spans and
// maps the common character references to plain text.
func RemoveBoilerplate(text string) string {
	text = headExpr.ReplaceAllString(text, "")
	text = commentExpr.ReplaceAllString(text, "")
	text = imageExpr.ReplaceAllString(text, "")
	text = spanExpr.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	return entity3Expr.ReplaceAllString(text, " ")
}

// UnwrapLayoutTags replaces opening layout and inline-XBRL tags with a line
// break and deletes their closing tags, keeping the inner text.
func UnwrapLayoutTags(text string) string {
	text = ixOpenExpr.ReplaceAllString(text, "\n")
	text = ixCloseExpr.ReplaceAllString(text, "")
	text = layoutOpenExpr.ReplaceAllString(text, "\n")
	return layoutCloseExpr.ReplaceAllString(text, "")
}

// RemoveXBRLIBlocks deletes whole <xbrli:NAME>...</xbrli:NAME> elements.
// An opening tag without a matching close is left for the residual strip.
func RemoveXBRLIBlocks(text string) string {
	var (
		b       strings.Builder
		closers = map[string]*regexp.Regexp{}
	)

	for {
		loc := xbrliOpenExpr.FindStringSubmatchIndex(text)
		if loc == nil {
			b.WriteString(text)
			return b.String()
		}

		if strings.HasSuffix(text[loc[0]:loc[1]], "/>") {
			b.WriteString(text[:loc[0]])
			text = text[loc[1]:]
			continue
		}

		name := strings.ToLower(text[loc[2]:loc[3]])
		closer, ok := closers[name]
		if !ok {
			closer = regexp.MustCompile(`(?i)</xbrli:` + regexp.QuoteMeta(name) + `\s*>`)
			closers[name] = closer
		}

		end := closer.FindStringIndex(text[loc[1]:])
		if end == nil {
			b.WriteString(text[:loc[1]])
			text = text[loc[1]:]
			continue
		}

		b.WriteString(text[:loc[0]])
		text = text[loc[1]+end[1]:]
	}
}

// RemoveEmptyElements removes empty paragraph and div pairs until a pass
// changes nothing, so nested empties collapse completely.
func RemoveEmptyElements(text string) string {
	for {
		before := text
		text = emptyParagraphExpr.ReplaceAllString(text, "")
		text = emptyDivExpr.ReplaceAllString(text, "")
		if text == before {
			return text
		}
	}
}

// BreakBeforeParagraphs inserts a line break before every remaining <p> tag.
func BreakBeforeParagraphs(text string) string {
	return paragraphExpr.ReplaceAllString(text, "\n$0")
}

// CompactLines drops blank lines and trims surrounding whitespace from the rest.
func CompactLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// StripResidualMarkup removes every remaining tag and numeric character
// reference. Tags are removed innermost first until none is left.
func StripResidualMarkup(text string) string {
	for {
		stripped := tagExpr.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}
	return numericEntityExpr.ReplaceAllString(text, "")
}
