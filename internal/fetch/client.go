// Package fetch downloads source PDFs into the local download directory.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvarela/aipbundler/internal/catalog"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, e.Message)
}

// Client downloads catalogued documents over HTTP.
type Client struct {
	httpClient  *http.Client
	downloadDir string
	log         *slog.Logger
}

func NewClient(downloadDir string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		downloadDir: downloadDir,
		log:         log,
	}
}

// Download fetches one document and returns the record with LocalPath set.
// An existing non-empty file is reused without hitting the network, so a
// re-run only fetches what a previous run missed.
func (c *Client) Download(ctx context.Context, rec catalog.Record) (catalog.Record, error) {
	path := filepath.Join(c.downloadDir, rec.Filename)
	rec.LocalPath = path

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		c.log.Debug("download skipped, file exists", "title", rec.Title, "path", path)
		return rec, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.URL, nil)
	if err != nil {
		return rec, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rec, &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return rec, &RetryableError{StatusCode: resp.StatusCode, Message: "server not ready"}
	}
	if resp.StatusCode != http.StatusOK {
		return rec, fmt.Errorf("download %s: status %d", rec.URL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !isPDFContent(ct) {
		return rec, fmt.Errorf("download %s: unexpected content type %q", rec.URL, ct)
	}

	if err := os.MkdirAll(c.downloadDir, 0o755); err != nil {
		return rec, fmt.Errorf("create download dir: %w", err)
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return rec, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return rec, &RetryableError{Message: fmt.Sprintf("write body: %v", err)}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return rec, fmt.Errorf("finalize file: %w", err)
	}

	c.log.Info("document downloaded", "title", rec.Title, "bytes", n, "path", path)
	return rec, nil
}

func isPDFContent(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "application/pdf") || strings.Contains(ct, "application/octet-stream")
}
