package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/infrastructure/storage"
	"FilingDrift/internal/similarity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func submission(accession, date, riskText string) string {
	return "<SEC-DOCUMENT>" + accession + ".txt : " + date + "\n" +
		"<SEC-HEADER>" + accession + ".hdr.sgml : " + date + "\n" +
		"FILED AS OF DATE:\t\t" + date + "\n" +
		"</SEC-HEADER>\n" +
		"<DOCUMENT>\n<TYPE>10-K\n<TEXT>\n<html><body>\n" +
		"<p>Item 1. Business</p>\n<p>We sell widgets.</p>\n" +
		"<p>Item 1A. Risk Factors</p>\n<p>" + riskText + "</p>\n" +
		"<p>Item 2. Properties</p>\n<p>One plant.</p>\n" +
		"</body></html>\n</TEXT>\n</DOCUMENT>\n"
}

const (
	filing2023 = "0000000001-23-000001"
	filing2022 = "0000000001-22-000001"
	filing2021 = "0000000001-21-000001"
)

func seedStore(t *testing.T) *storage.FileStore {
	t.Helper()

	ctx := context.Background()
	store := storage.NewFileStore(t.TempDir(), storage.FileLayout{})

	raws := map[string]string{
		filing2023: submission(filing2023, "20231103", "We face new litigation risk."),
		filing2022: submission(filing2022, "20221028", "We face risk."),
		filing2021: "<SEC-DOCUMENT>" + filing2021 + ".txt : 20211101\n<DOCUMENT>\n<p>Annual report without any section headings.</p>\n",
	}
	for id, raw := range raws {
		ref := domain.FilingRef{FilerID: "AAPL", FilingID: id}
		if err := store.WriteRaw(ctx, ref, strings.NewReader(raw)); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	return store
}

type lexicon map[string]float64

func (l lexicon) Score(word string) float64 { return l[word] }

func TestSegmentThenCompare(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := seedStore(t)

	seg := NewSegmentation(SegmentationDeps{Store: store, Workers: 2, Logger: discardLogger()})
	segReport, err := seg.Run(ctx, "run-1", nil, StageSegment)
	if err != nil {
		t.Fatalf("segmentation run: %v", err)
	}
	if segReport.Succeeded != 2 {
		t.Fatalf("expected 2 segmented filings, got %d: %s", segReport.Succeeded, segReport.Summary())
	}
	if got := segReport.Failures[domain.OutcomeSegmentationFailure]; !reflect.DeepEqual(got, []string{"AAPL/" + filing2021}) {
		t.Fatalf("unexpected segmentation failures: %v", got)
	}

	failedDir := store.FilingDir(domain.FilingRef{FilerID: "AAPL", FilingID: filing2021})
	items, _ := filepath.Glob(filepath.Join(failedDir, "item*.txt"))
	if len(items) != 0 {
		t.Fatalf("failed filing must not get section files, found %v", items)
	}

	risk, err := store.ReadSection(ctx, domain.FilingRef{FilerID: "AAPL", FilingID: filing2023}, "1A")
	if err != nil {
		t.Fatalf("read section: %v", err)
	}
	if risk != "Item 1A. Risk Factors\nWe face new litigation risk.\n" {
		t.Fatalf("unexpected risk section: %q", risk)
	}

	var buf bytes.Buffer
	sink, err := storage.NewCSVSink(&buf)
	if err != nil {
		t.Fatalf("csv sink: %v", err)
	}

	cmp := NewComparison(ComparisonDeps{
		Store:    store,
		Engine:   similarity.NewEngine(lexicon{"new": 0.5, "litigation": -0.5}),
		Sink:     sink,
		Sections: []string{"1A"},
		Workers:  2,
		Logger:   discardLogger(),
	})
	cmpReport, err := cmp.Run(ctx, "run-1", []string{"AAPL"})
	if err != nil {
		t.Fatalf("comparison run: %v", err)
	}
	if cmpReport.Succeeded != 1 || len(cmpReport.Failures[domain.OutcomeComparisonFailure]) != 1 {
		t.Fatalf("unexpected comparison report: %s", cmpReport.Summary())
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close sink: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one record, got %q", buf.String())
	}
	if want := "AAPL,2023-11-03,2022-10-28,2,"; !strings.HasPrefix(lines[1], want) {
		t.Fatalf("record %q does not start with %q", lines[1], want)
	}
	if !strings.HasSuffix(lines[1], ",9,7,0") {
		t.Fatalf("unexpected lengths or sentiment in %q", lines[1])
	}
}

func TestSplitWithoutCleanTextIsReadFailure(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	seg := NewSegmentation(SegmentationDeps{Store: store, Workers: 1, Logger: discardLogger()})

	o := seg.ProcessFiling(context.Background(), domain.FilingRef{FilerID: "AAPL", FilingID: filing2022}, StageSplit)
	if o.Kind != domain.OutcomeReadFailure {
		t.Fatalf("expected read failure, got %+v", o)
	}
}

func TestDatedFilingsNewestFirst(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	cmp := NewComparison(ComparisonDeps{Store: store, Logger: discardLogger()})

	filings, failures, err := cmp.DatedFilings(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("DatedFilings: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}

	var ids []string
	for _, f := range filings {
		ids = append(ids, f.FilingID)
	}
	if !reflect.DeepEqual(ids, []string{filing2023, filing2022, filing2021}) {
		t.Fatalf("unexpected order: %v", ids)
	}

	pairs := cmp.Plan(filings)
	if len(pairs) != 2 || pairs[0].Later.FilingID != filing2023 || pairs[0].Earlier.FilingID != filing2022 || pairs[0].Section != "1A" {
		t.Fatalf("unexpected plan: %+v", pairs)
	}
}

func TestRunPoolRecoversPanics(t *testing.T) {
	t.Parallel()

	outcomes := runPool(context.Background(), 2, []string{"ok", "boom", "bad"},
		func(s string) (string, string) { return "F", s },
		func(_ context.Context, s string) domain.Outcome {
			switch s {
			case "boom":
				panic("unexpected layout")
			case "bad":
				return domain.Failure("F", s, domain.ErrSegmentation)
			}
			return domain.Success("F", s)
		},
	)

	kinds := []domain.OutcomeKind{outcomes[0].Kind, outcomes[1].Kind, outcomes[2].Kind}
	want := []domain.OutcomeKind{domain.OutcomeSuccess, domain.OutcomeInternalFailure, domain.OutcomeSegmentationFailure}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("outcome kinds = %v, want %v", kinds, want)
	}
}

type fakeSource struct {
	filings map[string][]domain.RemoteFiling
}

func (f fakeSource) ListFilings(_ context.Context, filerID string) ([]domain.RemoteFiling, error) {
	list, ok := f.filings[filerID]
	if !ok {
		return nil, errors.New("unknown filer")
	}
	return list, nil
}

type fakeDownloader struct {
	mu    sync.Mutex
	calls []string
}

func (d *fakeDownloader) Download(_ context.Context, f domain.RemoteFiling) (io.ReadCloser, error) {
	d.mu.Lock()
	d.calls = append(d.calls, f.AccessionNumber)
	d.mu.Unlock()

	if strings.HasSuffix(f.AccessionNumber, "-404") {
		return nil, domain.ErrDownload
	}
	return io.NopCloser(strings.NewReader("raw " + f.AccessionNumber)), nil
}

func TestAcquisitionSkipsKnownFilings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := seedStore(t)
	src := fakeSource{filings: map[string][]domain.RemoteFiling{
		"AAPL": {
			{FilerID: "AAPL", AccessionNumber: filing2023},
			{FilerID: "AAPL", AccessionNumber: "0000000001-24-000001"},
			{FilerID: "AAPL", AccessionNumber: "0000000001-19-404"},
		},
	}}
	dl := &fakeDownloader{}

	acq := NewAcquisition(AcquisitionDeps{Source: src, Downloader: dl, Store: store, Workers: 2, Logger: discardLogger()})
	report, err := acq.Run(ctx, "run-2", []string{"AAPL", "NOPE"})
	if err != nil {
		t.Fatalf("acquisition run: %v", err)
	}

	if report.Succeeded != 1 {
		t.Fatalf("expected one new filing, got %s", report.Summary())
	}
	failed := report.Failures[domain.OutcomeDownloadFailure]
	if len(failed) != 2 {
		t.Fatalf("expected listing and download failures, got %v", failed)
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()
	for _, call := range dl.calls {
		if call == filing2023 {
			t.Fatal("known filing was downloaded again")
		}
	}

	raw, err := store.ReadRaw(ctx, domain.FilingRef{FilerID: "AAPL", FilingID: "0000000001-24-000001"})
	if err != nil || raw != "raw 0000000001-24-000001" {
		t.Fatalf("stored raw = %q, %v", raw, err)
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) PublishReport(_ context.Context, report string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, report)
	return nil
}

func TestRunnerPublishesEveryStage(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	notifier := &recordingNotifier{}
	runner := NewRunner(RunnerDeps{
		Segmentation: NewSegmentation(SegmentationDeps{Store: store, Workers: 2, Logger: discardLogger()}),
		Comparison:   NewComparison(ComparisonDeps{Store: store, Workers: 2, Logger: discardLogger()}),
		Notifier:     notifier,
		Logger:       discardLogger(),
	})

	reports, err := runner.RunAll(context.Background(), "run-3", nil, false)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(reports) != 2 || reports[0].Stage != "segment" || reports[1].Stage != "similarity" {
		t.Fatalf("unexpected reports: %+v", reports)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.messages) != 2 || !strings.HasPrefix(notifier.messages[0], "run run-3 stage segment") {
		t.Fatalf("unexpected notifications: %q", notifier.messages)
	}

	if _, err := os.Stat(filepath.Join(store.FilingDir(domain.FilingRef{FilerID: "AAPL", FilingID: filing2022}), "clean-full-submission.txt")); err != nil {
		t.Fatalf("clean text not written: %v", err)
	}
}

func TestRepeatedRunsKeepOneRowPerPair(t *testing.T) {
	t.Parallel()

	store := seedStore(t)
	var buf bytes.Buffer
	sink, err := storage.NewCSVSink(&buf)
	if err != nil {
		t.Fatalf("csv sink: %v", err)
	}

	runner := NewRunner(RunnerDeps{
		Segmentation: NewSegmentation(SegmentationDeps{Store: store, Workers: 2, Logger: discardLogger()}),
		Comparison: NewComparison(ComparisonDeps{
			Store:   store,
			Engine:  similarity.NewEngine(nil),
			Sink:    sink,
			Workers: 2,
			Logger:  discardLogger(),
		}),
		Logger: discardLogger(),
	})

	for i := 0; i < 3; i++ {
		if _, err := runner.RunAll(context.Background(), "run-watch", nil, false); err != nil {
			t.Fatalf("RunAll #%d: %v", i+1, err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one record after repeated runs, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "AAPL,2023-11-03,2022-10-28,") {
		t.Fatalf("unexpected record %q", lines[1])
	}
}

func TestFailedResegmentationRemovesSections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := seedStore(t)
	seg := NewSegmentation(SegmentationDeps{Store: store, Workers: 1, Logger: discardLogger()})
	ref := domain.FilingRef{FilerID: "AAPL", FilingID: filing2023}

	if o := seg.ProcessFiling(ctx, ref, StageSegment); o.Kind != domain.OutcomeSuccess {
		t.Fatalf("first segmentation: %+v", o)
	}
	if _, err := store.ReadSection(ctx, ref, "1A"); err != nil {
		t.Fatalf("section missing after first run: %v", err)
	}

	headingless := "<SEC-DOCUMENT>" + filing2023 + ".txt : 20231103\n<DOCUMENT>\n<p>Annual report without any section headings.</p>\n"
	if err := store.WriteRaw(ctx, ref, strings.NewReader(headingless)); err != nil {
		t.Fatalf("rewrite raw: %v", err)
	}

	if o := seg.ProcessFiling(ctx, ref, StageSegment); o.Kind != domain.OutcomeSegmentationFailure {
		t.Fatalf("expected segmentation failure, got %+v", o)
	}
	if text, err := store.ReadSection(ctx, ref, "1A"); err == nil {
		t.Fatalf("stale section survived a failed run: %q", text)
	}
	items, _ := filepath.Glob(filepath.Join(store.FilingDir(ref), "item*.txt"))
	if len(items) != 0 {
		t.Fatalf("failed filing still has section files %v", items)
	}
}

func TestResegmentationDropsOrphanSections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := seedStore(t)
	seg := NewSegmentation(SegmentationDeps{Store: store, Workers: 1, Logger: discardLogger()})
	ref := domain.FilingRef{FilerID: "AAPL", FilingID: filing2022}

	orphan := []domain.Section{{Label: "7A", StartLine: 1, EndLine: 2, Text: "Item 7A. Market Risk\n"}}
	if err := store.WriteSections(ctx, ref, orphan); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	if o := seg.ProcessFiling(ctx, ref, StageSegment); o.Kind != domain.OutcomeSuccess {
		t.Fatalf("segmentation: %+v", o)
	}
	if _, err := store.ReadSection(ctx, ref, "7A"); err == nil {
		t.Fatal("section not chosen by this run must be removed")
	}
	if _, err := store.ReadSection(ctx, ref, "1A"); err != nil {
		t.Fatalf("chosen section missing: %v", err)
	}
}
