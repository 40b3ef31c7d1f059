// Package filingdate reads the effective date of a filing from the header of
// its raw submission.
package filingdate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"FilingDrift/internal/domain"
)

const (
	dateLayout      = "20060102"
	filedAsOfPrefix = "FILED AS OF DATE:"
	headerEndMarker = "</SEC-HEADER>"
)

// Extract finds the date in raw submission text. See ExtractFrom.
func Extract(raw, filingID string) (time.Time, error) {
	return ExtractFrom(strings.NewReader(raw), filingID)
}

// ExtractFrom scans the submission header for the first line mentioning the
// filing id (the "<id>.txt : YYYYMMDD" marker) and parses the eight digits
// after its first colon. The "FILED AS OF DATE:" header line is the fallback.
// Scanning stops at the end of the SEC header; no date is a domain.ErrRead.
func ExtractFrom(r io.Reader, filingID string) (time.Time, error) {
	needle := strings.ToLower(filingID)
	br := bufio.NewReader(r)

	var fallback time.Time
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if needle != "" && strings.Contains(strings.ToLower(line), needle) {
				if _, after, ok := strings.Cut(line, ":"); ok {
					if d, perr := parseDate(after); perr == nil {
						return d, nil
					}
				}
			}

			trimmed := strings.TrimSpace(line)
			if fallback.IsZero() && strings.HasPrefix(trimmed, filedAsOfPrefix) {
				if d, perr := parseDate(strings.TrimPrefix(trimmed, filedAsOfPrefix)); perr == nil {
					fallback = d
				}
			}
			if strings.HasPrefix(trimmed, headerEndMarker) {
				break
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: scan header of %s: %w", domain.ErrRead, filingID, err)
		}
	}

	if !fallback.IsZero() {
		return fallback, nil
	}
	return time.Time{}, fmt.Errorf("%w: no filing date found for %s", domain.ErrRead, filingID)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, fmt.Errorf("date %q too short", s)
	}
	return time.Parse(dateLayout, s[:len(dateLayout)])
}
