package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvarela/aipbundler/internal/assemble"
	"github.com/nvarela/aipbundler/internal/catalog"
	"github.com/nvarela/aipbundler/internal/report"
)

// Fetcher downloads one catalogued document.
type Fetcher interface {
	Download(ctx context.Context, rec catalog.Record) (catalog.Record, error)
}

// Runner assembles downloaded documents into output artifacts.
type Runner interface {
	Run(records []catalog.Record) (*assemble.Outcome, error)
}

// Worker drives one job through download, assembly and reporting.
type Worker struct {
	fetcher   Fetcher
	assembler Runner
	outputDir string
	log       *slog.Logger
}

func NewWorker(fetcher Fetcher, assembler Runner, outputDir string, log *slog.Logger) *Worker {
	return &Worker{
		fetcher:   fetcher,
		assembler: assembler,
		outputDir: outputDir,
		log:       log,
	}
}

// Process runs the job to completion. Download failures degrade the job to
// partial; only an assembly error or cancellation fails it outright.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	log.Info("job started", "documents", job.Progress.TotalDocuments)

	job.SetStatus(StatusFetching, "downloading documents")
	records := job.Records()
	for i, rec := range records {
		if ctx.Err() != nil {
			job.SetStatus(StatusFailed, "cancelled")
			return
		}
		got, err := w.download(ctx, rec, log)
		records[i] = got
		if err != nil {
			job.AddError(fmt.Sprintf("download %s: %v", rec.Title, err))
			job.IncrDownloadFailed()
			continue
		}
		job.IncrDownloaded()
	}
	job.SetRecords(records)

	job.SetStatus(StatusAssembling, "assembling output")
	outcome, asmErr := w.assembler.Run(records)
	if asmErr != nil {
		job.AddError(fmt.Sprintf("assemble: %v", asmErr))
	} else {
		job.SetOutcome(outcome)
	}

	// The run manifest is written even when assembly fails, so operators
	// can see which sources made it to disk.
	job.SetStatus(StatusReporting, "writing report")
	rep := report.Build(records, job.Excluded(), time.Now())
	if _, err := report.Write(w.outputDir, rep); err != nil {
		job.AddError(fmt.Sprintf("report: %v", err))
		log.Error("report write failed", "error", err)
	}

	switch {
	case asmErr != nil:
		job.SetStatus(StatusFailed, "assembly error")
		log.Error("job failed", "error", asmErr)
	case job.Snapshot().Progress.DownloadFailed > 0 || len(outcome.Skipped) > 0:
		job.SetStatus(StatusPartial, "done with degraded documents")
		log.Warn("job completed partially",
			"download_failed", job.Snapshot().Progress.DownloadFailed,
			"skipped", len(outcome.Skipped))
	default:
		job.SetStatus(StatusCompleted, "done")
		log.Info("job completed", "split", outcome.Split, "pages", outcome.TotalPages)
	}
}

func (w *Worker) download(ctx context.Context, rec catalog.Record, log *slog.Logger) (catalog.Record, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			wait := Backoff(attempt - 1)
			log.Warn("retrying download", "title", rec.Title, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return rec, ctx.Err()
			case <-time.After(wait):
			}
		}
		got, err := w.fetcher.Download(ctx, rec)
		if err == nil {
			return got, nil
		}
		lastErr = err
		if !IsRetryable(err) || errors.Is(err, context.Canceled) {
			return got, err
		}
		rec = got
	}
	return rec, lastErr
}
