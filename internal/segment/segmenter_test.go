package segment

import (
	"errors"
	"reflect"
	"testing"

	"FilingDrift/internal/domain"
)

func TestExtractHeadings(t *testing.T) {
	t.Parallel()

	text := "Cover page\nItem 1. Business\nItem 1. Business (continued)\nITEM 1A. Risk Factors\n  items 2 and 3\nItem 45. Exhibit index\nThe item 7 discussion"
	got := ExtractHeadings(text)
	want := []domain.HeadingRecord{
		{Label: "1", LineNo: 2},
		{Label: "1A", LineNo: 4},
		{Label: "2", LineNo: 5},
		{Label: "45", LineNo: 6},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractHeadings() = %+v, want %+v", got, want)
	}
}

func TestExtractHeadingsNeverRepeatsLabels(t *testing.T) {
	t.Parallel()

	text := "Item 1.\nItem 1.\nItem 1A.\nItem 1a.\nItem 2.\nItem 1.\nItem 1."
	got := ExtractHeadings(text)
	for i := 1; i < len(got); i++ {
		if got[i].Label == got[i-1].Label {
			t.Fatalf("consecutive duplicate label %q at %d", got[i].Label, got[i].LineNo)
		}
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 headings, got %+v", got)
	}
}

func TestCanonicalSequence(t *testing.T) {
	t.Parallel()

	headings := []domain.HeadingRecord{{Label: "1", LineNo: 1}, {Label: "10", LineNo: 5}, {Label: "99", LineNo: 9}}
	got, err := CanonicalSequence(headings)
	if err != nil {
		t.Fatalf("CanonicalSequence error: %v", err)
	}

	want := []string{"1", "1A", "1B", "1C", "1D", "2", "3", "4", "5", "6", "7", "7A", "8",
		"9", "9A", "9B", "9C", "10", "10A", "10B", "10C"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CanonicalSequence() = %v, want %v", got, want)
	}

	if _, err := CanonicalSequence([]domain.HeadingRecord{{Label: "45", LineNo: 3}}); !errors.Is(err, domain.ErrSegmentation) {
		t.Fatalf("expected segmentation failure for outlier-only numerals, got %v", err)
	}
}

func TestRoundCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		labels []string
		want   int
	}{
		{name: "single pass", labels: []string{"1", "1A", "2"}, want: 1},
		{name: "toc and body", labels: []string{"1", "1A", "2", "1", "1A", "2"}, want: 2},
		{name: "second value rarer", labels: []string{"1", "15", "14", "15", "15"}, want: 1},
		{name: "only one value", labels: []string{"3", "3", "3"}, want: 3},
		{name: "outliers ignored", labels: []string{"1", "2", "2", "99", "99", "99"}, want: 1},
		{name: "second distinct numeral not adjacent", labels: []string{"1", "2", "15", "1", "2", "15"}, want: 2},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			headings := make([]domain.HeadingRecord, len(tc.labels))
			for i, l := range tc.labels {
				headings[i] = domain.HeadingRecord{Label: l, LineNo: i + 1}
			}
			got, err := RoundCount(headings)
			if err != nil {
				t.Fatalf("RoundCount error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("RoundCount() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLongestSpanChoose(t *testing.T) {
	t.Parallel()

	short := []domain.HeadingRecord{{Label: "1", LineNo: 1}, {Label: "2", LineNo: 2}, {Label: "3", LineNo: 4}}
	tie := []domain.HeadingRecord{{Label: "1", LineNo: 10}, {Label: "2", LineNo: 20}, {Label: "3", LineNo: 22}}

	got, err := LongestSpan{}.Choose([][]domain.HeadingRecord{short, tie})
	if err != nil {
		t.Fatalf("Choose error: %v", err)
	}
	if !reflect.DeepEqual(got, short) {
		t.Fatalf("expected the first of two equal spans, got %+v", got)
	}

	_, err = LongestSpan{}.Choose([][]domain.HeadingRecord{short, {{Label: "1", LineNo: 30}}})
	if !errors.Is(err, domain.ErrSegmentation) {
		t.Fatalf("expected segmentation failure for a one-heading round, got %v", err)
	}
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	c, err := reg.Resolve("")
	if err != nil || c.Name() != DefaultStrategy {
		t.Fatalf("expected default chooser, got %v, %v", c, err)
	}
	if _, err := reg.Resolve("classifier"); err == nil {
		t.Fatal("expected error for unknown chooser")
	}
}

func TestSegmentSinglePass(t *testing.T) {
	t.Parallel()

	text := "Item 1. Business\nSome text\nItem 1A. Risk Factors\nMore text\nItem 2. Properties\nTrailing text"
	res, err := NewSegmenter(nil).Segment(text)
	if err != nil {
		t.Fatalf("Segment error: %v", err)
	}
	if res.Rounds != 1 {
		t.Fatalf("expected 1 round, got %d", res.Rounds)
	}

	want := []domain.Section{
		{Label: "1", StartLine: 1, EndLine: 3, Text: "Item 1. Business\nSome text\n"},
		{Label: "1A", StartLine: 3, EndLine: 5, Text: "Item 1A. Risk Factors\nMore text\n"},
		{Label: "2", StartLine: 5, EndLine: 7, Text: "Item 2. Properties\nTrailing text\n"},
	}
	if !reflect.DeepEqual(res.Sections, want) {
		t.Fatalf("sections = %+v, want %+v", res.Sections, want)
	}

	names := []string{res.Sections[0].FileName(), res.Sections[1].FileName(), res.Sections[2].FileName()}
	if !reflect.DeepEqual(names, []string{"item1.txt", "item1A.txt", "item2.txt"}) {
		t.Fatalf("unexpected file names: %v", names)
	}
}

func TestSegmentPrefersBodyOverTableOfContents(t *testing.T) {
	t.Parallel()

	text := "Table of Contents\n" +
		"Item 1. Business\nItem 1A. Risk Factors\nItem 2. Properties\n" +
		"Item 1. Business\nWe build things.\nMore detail.\n" +
		"Item 1A. Risk Factors\nMany risks.\nEven more.\n" +
		"Item 2. Properties\nOne plant."

	res, err := NewSegmenter(LongestSpan{}).Segment(text)
	if err != nil {
		t.Fatalf("Segment error: %v", err)
	}
	if res.Rounds != 2 {
		t.Fatalf("expected 2 rounds, got %d", res.Rounds)
	}

	wantChosen := []domain.HeadingRecord{{Label: "1", LineNo: 5}, {Label: "1A", LineNo: 8}, {Label: "2", LineNo: 11}}
	if !reflect.DeepEqual(res.Chosen, wantChosen) {
		t.Fatalf("chosen = %+v, want %+v", res.Chosen, wantChosen)
	}
	if got := res.Sections[2].Text; got != "Item 2. Properties\nOne plant.\n" {
		t.Fatalf("last section should run to the end of the document, got %q", got)
	}
}

func TestSegmentWithoutHeadingsFails(t *testing.T) {
	t.Parallel()

	_, err := NewSegmenter(nil).Segment("Annual report\nNothing that looks like a heading\n")
	if !errors.Is(err, domain.ErrSegmentation) {
		t.Fatalf("expected segmentation failure, got %v", err)
	}
}
