package domain

import "time"

// FilingRef identifies one filing of one filer on disk.
type FilingRef struct {
	FilerID  string
	FilingID string
}

// String renders the ref as "filer/filing" for logs and reports.
func (r FilingRef) String() string {
	return r.FilerID + "/" + r.FilingID
}

// Filing is a FilingRef enriched with its effective date.
type Filing struct {
	FilingRef
	Date time.Time
}

// RemoteFiling is a filing listed by an acquisition source but not yet downloaded.
type RemoteFiling struct {
	FilerID         string
	CIK             string
	AccessionNumber string
	Form            string
	FiledAt         time.Time
	URL             string
}

// HeadingRecord is one "Item" heading found in normalized text.
type HeadingRecord struct {
	Label  string `json:"label"`
	LineNo int    `json:"line_no"`
}

// Section is the slice of normalized text owned by one chosen heading.
// StartLine is inclusive, EndLine is exclusive; both are 1-indexed.
type Section struct {
	Label     string `json:"label"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"-"`
}

// FileName is the on-disk name of the section, e.g. item1A.txt.
func (s Section) FileName() string {
	return SectionFileName(s.Label)
}

// SectionFileName maps a section label to its file name.
func SectionFileName(label string) string {
	return "item" + label + ".txt"
}
