package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/scanner"
)

const (
	edgarBaseURL    = "https://www.sec.gov"
	edgarBrowsePath = "/cgi-bin/browse-edgar"
	edgarDateLayout = "2006-01-02"
)

var accessionExpr = regexp.MustCompile(`\d{10}-\d{2}-\d{6}`)

// EdgarScanner pages through the EDGAR company browse listing and collects
// filings of the requested form.
type EdgarScanner struct {
	client    *http.Client
	baseURL   string
	userAgent string
	pageSize  int
	logger    *slog.Logger
}

var _ scanner.Scanner = (*EdgarScanner)(nil)

// NewEdgarScanner wires an HTTP client; pageSize defaults to 100.
// EDGAR rejects requests without a descriptive User-Agent.
func NewEdgarScanner(client *http.Client, baseURL, userAgent string, logger *slog.Logger) *EdgarScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = edgarBaseURL
	}
	return &EdgarScanner{
		client:    client,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		pageSize:  100,
		logger:    logger,
	}
}

// SetPageSize overrides the number of rows requested per listing page.
func (e *EdgarScanner) SetPageSize(n int) {
	if n > 0 {
		e.pageSize = n
	}
}

// Name identifies the strategy inside the registry.
func (e *EdgarScanner) Name() string {
	return "edgar"
}

// Scan walks the listing newest first and stops at the first filing older
// than req.After or at the last page.
func (e *EdgarScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RemoteFiling, error) {
	if req.Key() == "" {
		return nil, fmt.Errorf("no filer given")
	}
	if req.Form == "" {
		req.Form = "10-K"
	}

	var (
		results []domain.RemoteFiling
		seen    = map[string]struct{}{}
		start   int
	)

	for {
		pageURL, err := buildBrowseURL(e.baseURL, req.Key(), req.Form, start, e.pageSize)
		if err != nil {
			return nil, fmt.Errorf("filer %s: %w", req.FilerID, err)
		}

		doc, err := e.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("filer %s: %w", req.FilerID, err)
		}

		filings, shouldContinue := e.extractFilings(doc, req)
		for _, f := range filings {
			if _, ok := seen[f.AccessionNumber]; ok {
				continue
			}
			seen[f.AccessionNumber] = struct{}{}
			results = append(results, f)
		}

		e.debug("edgar page scanned", "filer", req.FilerID, "start", start, "filings", len(filings))
		if !shouldContinue {
			break
		}
		start += e.pageSize
	}

	return results, nil
}

func (e *EdgarScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edgar returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	return doc, nil
}

func (e *EdgarScanner) extractFilings(doc *goquery.Document, req scanner.Request) ([]domain.RemoteFiling, bool) {
	var (
		collected    []domain.RemoteFiling
		continueScan = true
		processed    int
	)

	doc.Find("table.tableFile2 tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() < 4 {
			return true
		}
		processed++

		filing, err := e.parseRow(cells, req)
		if err != nil {
			e.debug("skip listing row", "filer", req.FilerID, "error", err)
			return true
		}

		if !req.After.IsZero() && filing.FiledAt.Before(req.After) {
			continueScan = false
			return false
		}
		if filing.Form == req.Form {
			collected = append(collected, filing)
		}
		return true
	})

	if processed < e.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func (e *EdgarScanner) parseRow(cells *goquery.Selection, req scanner.Request) (domain.RemoteFiling, error) {
	form := strings.TrimSpace(cells.Eq(0).Text())

	accession := accessionExpr.FindString(cells.Eq(2).Text())
	if accession == "" {
		return domain.RemoteFiling{}, fmt.Errorf("no accession number in row")
	}

	filedAt, err := time.Parse(edgarDateLayout, strings.TrimSpace(cells.Eq(3).Text()))
	if err != nil {
		return domain.RemoteFiling{}, fmt.Errorf("filing date: %w", err)
	}

	href, _ := cells.Eq(1).Find("a").First().Attr("href")
	cik := cikFromIndexPath(href)
	if cik == "" {
		cik = strings.TrimLeft(req.Key(), "0")
	}

	return domain.RemoteFiling{
		FilerID:         req.FilerID,
		CIK:             cik,
		AccessionNumber: accession,
		Form:            form,
		FiledAt:         filedAt,
		URL:             submissionURL(e.baseURL, cik, accession),
	}, nil
}

// cikFromIndexPath reads the CIK from /Archives/edgar/data/<cik>/<acc>/... links.
func cikFromIndexPath(href string) string {
	parts := strings.Split(strings.Trim(href, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "data" {
			if _, err := strconv.Atoi(parts[i+1]); err == nil {
				return parts[i+1]
			}
		}
	}
	return ""
}

func submissionURL(base, cik, accession string) string {
	return base + path.Join("/Archives/edgar/data", cik, strings.ReplaceAll(accession, "-", ""), accession+".txt")
}

func buildBrowseURL(base, key, form string, start, count int) (string, error) {
	parsed, err := url.Parse(base + edgarBrowsePath)
	if err != nil {
		return "", fmt.Errorf("invalid edgar url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("action", "getcompany")
	query.Set("CIK", key)
	query.Set("type", form)
	query.Set("dateb", "")
	query.Set("owner", "include")
	query.Set("start", strconv.Itoa(start))
	query.Set("count", strconv.Itoa(count))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (e *EdgarScanner) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
