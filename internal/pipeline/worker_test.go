package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nvarela/aipbundler/internal/assemble"
	"github.com/nvarela/aipbundler/internal/catalog"
	"github.com/nvarela/aipbundler/internal/fetch"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFetcher struct {
	mu       sync.Mutex
	attempts map[string]int
	fail     map[string]error
	// failOnce makes the first attempt for a URL retryable-fail, then succeed.
	failOnce map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		attempts: make(map[string]int),
		fail:     make(map[string]error),
		failOnce: make(map[string]bool),
	}
}

func (f *fakeFetcher) Download(_ context.Context, rec catalog.Record) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[rec.URL]++
	if err := f.fail[rec.URL]; err != nil {
		return rec, err
	}
	if f.failOnce[rec.URL] && f.attempts[rec.URL] == 1 {
		return rec, &fetch.RetryableError{StatusCode: 503, Message: "flaky"}
	}
	rec.LocalPath = "/downloads/" + rec.Filename
	return rec, nil
}

type fakeRunner struct {
	outcome *assemble.Outcome
	err     error
	got     []catalog.Record
}

func (f *fakeRunner) Run(records []catalog.Record) (*assemble.Outcome, error) {
	f.got = records
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func workerRecords() []catalog.Record {
	return []catalog.Record{
		catalog.NewRecord("GEN-0.1 Prefacio", "https://example.com/gen01.pdf", "GEN", ""),
		catalog.NewRecord("ENR-1.1 Reglas", "https://example.com/enr11.pdf", "ENR", ""),
	}
}

func TestWorker_CompletesCleanRun(t *testing.T) {
	fetcher := newFakeFetcher()
	runner := &fakeRunner{outcome: &assemble.Outcome{CombinedPath: "/out/combined.pdf", TotalPages: 7}}
	outDir := t.TempDir()
	w := NewWorker(fetcher, runner, outDir, testLog())

	job := NewJob(workerRecords(), nil)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed; errors: %v", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Downloaded != 2 {
		t.Errorf("downloaded = %d, want 2", snap.Progress.Downloaded)
	}
	if snap.Outcome == nil || snap.Outcome.TotalPages != 7 {
		t.Errorf("outcome = %+v", snap.Outcome)
	}
	for _, rec := range runner.got {
		if rec.LocalPath == "" {
			t.Errorf("record %q passed to assembly without local path", rec.Title)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "metadata.json")); err != nil {
		t.Errorf("run report not written: %v", err)
	}
}

func TestWorker_RetriesTransientDownload(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.failOnce["https://example.com/gen01.pdf"] = true
	runner := &fakeRunner{outcome: &assemble.Outcome{}}
	w := NewWorker(fetcher, runner, t.TempDir(), testLog())

	job := NewJob(workerRecords(), nil)
	w.Process(context.Background(), job)

	if got := fetcher.attempts["https://example.com/gen01.pdf"]; got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	if snap := job.Snapshot(); snap.Status != StatusCompleted {
		t.Errorf("status = %q, want completed after retry", snap.Status)
	}
}

func TestWorker_PermanentDownloadFailureIsPartial(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fail["https://example.com/gen01.pdf"] = errors.New("status 404")
	runner := &fakeRunner{outcome: &assemble.Outcome{}}
	w := NewWorker(fetcher, runner, t.TempDir(), testLog())

	job := NewJob(workerRecords(), nil)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("status = %q, want partial", snap.Status)
	}
	if snap.Progress.DownloadFailed != 1 || snap.Progress.Downloaded != 1 {
		t.Errorf("progress = %+v", snap.Progress)
	}
	if got := fetcher.attempts["https://example.com/gen01.pdf"]; got != 1 {
		t.Errorf("permanent failure retried %d times", got)
	}
	// The failed document still reaches assembly; grouping drops it there.
	if len(runner.got) != 2 {
		t.Errorf("assembly received %d records, want 2", len(runner.got))
	}
}

func TestWorker_AssemblyErrorFailsJob(t *testing.T) {
	fetcher := newFakeFetcher()
	runner := &fakeRunner{err: assemble.ErrNothingToAssemble}
	outDir := t.TempDir()
	w := NewWorker(fetcher, runner, outDir, testLog())

	job := NewJob(workerRecords(), nil)
	w.Process(context.Background(), job)

	if snap := job.Snapshot(); snap.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", snap.Status)
	}
	// Report still written for a failed run.
	if _, err := os.Stat(filepath.Join(outDir, "metadata.json")); err != nil {
		t.Errorf("run report not written: %v", err)
	}
}
