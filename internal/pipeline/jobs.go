package pipeline

import (
	"sync"
	"time"

	"github.com/nvarela/aipbundler/internal/assemble"
	"github.com/nvarela/aipbundler/internal/catalog"
)

// JobStatus represents the state of an assembly job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusFetching   JobStatus = "fetching"
	StatusAssembling JobStatus = "assembling"
	StatusReporting  JobStatus = "reporting"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single assembly run.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	records  []catalog.Record
	excluded []catalog.Record
	outcome  *assemble.Outcome
	errors   []string
}

// Progress tracks per-run document counters.
type Progress struct {
	TotalDocuments int      `json:"total_documents"`
	Downloaded     int      `json:"downloaded"`
	DownloadFailed int      `json:"download_failed"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job over the given catalogue records. Excluded
// records take no part in assembly but are listed in the run report.
func NewJob(records, excluded []catalog.Record) *Job {
	now := time.Now()
	job := &Job{
		ID:        generateULID(),
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		records:   records,
		excluded:  excluded,
	}
	job.Progress.TotalDocuments = len(records)
	return job
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrDownloaded atomically increments the download counter.
func (j *Job) IncrDownloaded() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Downloaded++
	j.UpdatedAt = time.Now()
}

// IncrDownloadFailed atomically increments the failed-download counter.
func (j *Job) IncrDownloadFailed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DownloadFailed++
	j.UpdatedAt = time.Now()
}

// Records returns the catalogue records the job was submitted with.
func (j *Job) Records() []catalog.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.records
}

// Excluded returns the records dropped by the subsection filter.
func (j *Job) Excluded() []catalog.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.excluded
}

// SetRecords replaces the job's records after download resolution.
func (j *Job) SetRecords(records []catalog.Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = records
}

// SetOutcome attaches the finished assembly result.
func (j *Job) SetOutcome(out *assemble.Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outcome = out
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string            `json:"job_id"`
	Status    JobStatus         `json:"status"`
	Phase     string            `json:"phase"`
	Progress  Progress          `json:"progress"`
	Outcome   *assemble.Outcome `json:"outcome,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			TotalDocuments: j.Progress.TotalDocuments,
			Downloaded:     j.Progress.Downloaded,
			DownloadFailed: j.Progress.DownloadFailed,
			Errors:         errs,
		},
		Outcome:   j.outcome,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
