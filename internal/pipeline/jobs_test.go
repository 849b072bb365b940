package pipeline

import (
	"testing"
	"time"

	"github.com/nvarela/aipbundler/internal/assemble"
	"github.com/nvarela/aipbundler/internal/catalog"
)

func TestNewJob(t *testing.T) {
	records := []catalog.Record{
		catalog.NewRecord("GEN-0.1 Prefacio", "https://example.com/gen01.pdf", "GEN", ""),
		catalog.NewRecord("ENR-1.1 Reglas", "https://example.com/enr11.pdf", "ENR", ""),
	}
	job := NewJob(records, nil)

	if len(job.ID) != 26 {
		t.Errorf("expected 26-char job ID, got %q", job.ID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.Progress.TotalDocuments != 2 {
		t.Errorf("expected 2 total documents, got %d", job.Progress.TotalDocuments)
	}
	if got := job.Records(); len(got) != 2 {
		t.Errorf("expected 2 records back, got %d", len(got))
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob(nil, nil)

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusFetching, "downloading documents"},
		{StatusAssembling, "assembling output"},
		{StatusReporting, "writing report"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := NewJob(nil, nil)
	job.AddError("download GEN-0.1 failed")
	job.AddError("download AD-0.6 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "download GEN-0.1 failed" {
		t.Errorf("expected first error %q, got %q", "download GEN-0.1 failed", snap.Progress.Errors[0])
	}
}

func TestJob_Counters(t *testing.T) {
	job := NewJob(nil, nil)
	job.IncrDownloaded()
	job.IncrDownloaded()
	job.IncrDownloadFailed()

	snap := job.Snapshot()
	if snap.Progress.Downloaded != 2 {
		t.Errorf("expected 2 downloaded, got %d", snap.Progress.Downloaded)
	}
	if snap.Progress.DownloadFailed != 1 {
		t.Errorf("expected 1 failed, got %d", snap.Progress.DownloadFailed)
	}
}

func TestJob_SnapshotOutcome(t *testing.T) {
	job := NewJob(nil, nil)
	if snap := job.Snapshot(); snap.Outcome != nil {
		t.Error("expected nil outcome before assembly")
	}

	job.SetOutcome(&assemble.Outcome{CombinedPath: "/out/AIP_Argentina_Completo.pdf", TotalPages: 7})
	snap := job.Snapshot()
	if snap.Outcome == nil || snap.Outcome.TotalPages != 7 {
		t.Errorf("expected outcome with 7 pages, got %+v", snap.Outcome)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := NewJob(nil, nil)
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob(nil, nil)
	store.Put(job)

	got := store.Get(job.ID)
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != job.ID {
		t.Errorf("expected ID %q, got %q", job.ID, got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := NewJob(nil, nil)
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := NewJob(nil, nil)
	store.Put(fresh)

	store.Cleanup()

	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
