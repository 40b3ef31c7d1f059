// Package edgar downloads full submission text files from the SEC archive.
package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
)

// Downloader fetches submissions while keeping at least delay between
// consecutive requests across all goroutines.
type Downloader struct {
	client    *http.Client
	userAgent string
	delay     time.Duration

	mu   sync.Mutex
	last time.Time
}

var _ ports.Downloader = (*Downloader)(nil)

// NewDownloader wires an HTTP client; nil gets a client with a generous timeout.
func NewDownloader(client *http.Client, userAgent string, delay time.Duration) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Downloader{client: client, userAgent: userAgent, delay: delay}
}

// Download implements ports.Downloader. Failures wrap domain.ErrDownload.
func (d *Downloader) Download(ctx context.Context, filing domain.RemoteFiling) (io.ReadCloser, error) {
	if filing.URL == "" {
		return nil, fmt.Errorf("%w: %s has no url", domain.ErrDownload, filing.AccessionNumber)
	}
	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, filing.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrDownload, err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDownload, filing.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrDownload, filing.URL, resp.Status)
	}

	return resp.Body, nil
}

func (d *Downloader) wait(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pause := time.Until(d.last.Add(d.delay)); pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.last = time.Now()
	return nil
}
