package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/segment"
	"FilingDrift/internal/similarity"
)

type stubRecords struct {
	recs []domain.SimilarityRecord
	err  error
}

func (s stubRecords) Records(_ context.Context, filerID, section string) ([]domain.SimilarityRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.SimilarityRecord
	for _, r := range s.recs {
		if (filerID == "" || r.FilerID == filerID) && (section == "" || r.Section == section) {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, records stubRecords) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewRouter(segment.NewSegmenter(nil), similarity.NewEngine(nil), records, logger)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, stubRecords{})
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, stubRecords{})
	resp, err := http.Post(server.URL+"/v1/normalize", "text/html", strings.NewReader("<p>Item 1. Business</p><p>Widgets.</p>"))
	if err != nil {
		t.Fatalf("POST /v1/normalize: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body=%s", resp.StatusCode, body)
	}
	if strings.Contains(string(body), "<") || !strings.Contains(string(body), "Item 1.") {
		t.Fatalf("unexpected normalized text %q", body)
	}
}

func TestSegmentEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, stubRecords{})
	text := "Item 1. Business\nWe sell widgets.\nItem 1A. Risk Factors\nWe face risk.\nItem 2. Properties\nOne plant."

	resp, err := http.Post(server.URL+"/v1/segment?normalized=true", "text/plain", strings.NewReader(text))
	if err != nil {
		t.Fatalf("POST /v1/segment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Rounds != 1 || len(got.Sections) != 3 {
		t.Fatalf("unexpected response %+v", got)
	}
	if got.Sections[1].Label != "1A" || got.Sections[1].StartLine != 3 || got.Sections[1].EndLine != 5 {
		t.Fatalf("unexpected 1A section %+v", got.Sections[1])
	}
}

func TestSegmentEndpointFailure(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, stubRecords{})
	resp, err := http.Post(server.URL+"/v1/segment?normalized=true", "text/plain", strings.NewReader("No headings here."))
	if err != nil {
		t.Fatalf("POST /v1/segment: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["error"] == "" {
		t.Fatalf("expected JSON error body, got %v (%v)", body, err)
	}
}

func TestCompareEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, stubRecords{})
	payload := `{"later":"we face new litigation risk","earlier":"we face risk"}`
	resp, err := http.Post(server.URL+"/v1/compare", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /v1/compare: %v", err)
	}
	defer resp.Body.Close()

	var got compareResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Distance != 2 || got.LenA != 5 || got.LenB != 3 {
		t.Fatalf("unexpected measurements %+v", got)
	}
	if strings.Join(got.Novelty, ",") != "new,litigation" {
		t.Fatalf("unexpected novelty %v", got.Novelty)
	}
}

func TestCompareEndpointRejectsBadJSON(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, stubRecords{})
	resp, err := http.Post(server.URL+"/v1/compare", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("POST /v1/compare: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRecordsEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, stubRecords{recs: []domain.SimilarityRecord{
		{FilerID: "AAPL", Section: "1A", DateA: "2023-11-03", DateB: "2022-10-28"},
		{FilerID: "MSFT", Section: "1A", DateA: "2023-07-27", DateB: "2022-07-28"},
	}})

	resp, err := http.Get(server.URL + "/v1/records?ticker=AAPL&section=1A")
	if err != nil {
		t.Fatalf("GET /v1/records: %v", err)
	}
	defer resp.Body.Close()

	var got []domain.SimilarityRecord
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].FilerID != "AAPL" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestRecordsEndpointErrors(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, stubRecords{err: errors.New("db down")})
	resp, err := http.Get(server.URL + "/v1/records")
	if err != nil {
		t.Fatalf("GET /v1/records: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}
