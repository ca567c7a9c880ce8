package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/visitors"
	"github.com/FocuswithJustin/writings/internal/logging"
	"github.com/FocuswithJustin/writings/internal/update"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Done reports whether the status is final.
func (s JobStatus) Done() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// UpdateRequest is the body of POST /updates. With Apply unset the job
// only checks the published documents against the extraction rules.
type UpdateRequest struct {
	Works []string `json:"works,omitempty"`
	Apply bool     `json:"apply"`
}

// UpdateFunc refreshes one work's snapshot.
type UpdateFunc func(ctx context.Context, work visitors.Work, dryRun bool) (*update.Report, error)

// Job is an asynchronous snapshot update.
type Job struct {
	ID          string           `json:"id"`
	Status      JobStatus        `json:"status"`
	Progress    int              `json:"progress"` // 0-100
	Works       []string         `json:"works"`
	Apply       bool             `json:"apply"`
	Reports     []*update.Report `json:"reports,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`

	cancel context.CancelFunc
}

// JobStore manages jobs in memory. It hands out copies, so a Job returned
// by Get never changes.
type JobStore struct {
	jobs map[string]*Job
	mu   sync.RWMutex
	now  func() time.Time
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a pending job for works and returns it with the context
// the job must run under.
func (s *JobStore) Create(parent context.Context, works []string, apply bool) (Job, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Works:     works,
		Apply:     apply,
		CreatedAt: now,
		UpdatedAt: now,
		cancel:    cancel,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job.snapshot(), ctx
}

func (j *Job) snapshot() Job {
	c := *j
	c.Works = slices.Clone(j.Works)
	c.Reports = slices.Clone(j.Reports)
	c.cancel = nil
	return c
}

// Get returns a copy of the job.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.snapshot(), true
}

// List returns every job, oldest first.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs
}

// modify applies fn to a job that has not finished. It reports false when
// the job is gone or already final.
func (s *JobStore) modify(id string, fn func(*Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Done() {
		return false
	}
	fn(job)
	job.UpdatedAt = s.now()
	if job.Status.Done() {
		completed := job.UpdatedAt
		job.CompletedAt = &completed
		job.cancel()
	}
	return true
}

// Cancel stops a pending or running job.
func (s *JobStore) Cancel(id string) (Job, error) {
	if _, ok := s.Get(id); !ok {
		return Job{}, errors.NewNotFound("job", id)
	}
	if !s.modify(id, func(j *Job) { j.Status = JobStatusCancelled }) {
		job, _ := s.Get(id)
		return job, &errors.ValidationError{Field: "status", Value: string(job.Status), Message: "job has already finished"}
	}
	job, _ := s.Get(id)
	return job, nil
}

// CancelAll stops every unfinished job.
func (s *JobStore) CancelAll() {
	for _, job := range s.List() {
		s.modify(job.ID, func(j *Job) { j.Status = JobStatusCancelled })
	}
}

// runJob updates each work in turn and stops at the first failure.
func (s *Server) runJob(ctx context.Context, id string, works []visitors.Work, dryRun bool) {
	s.jobs.modify(id, func(j *Job) { j.Status = JobStatusRunning })
	s.hub.Broadcast(ProgressMessage{Type: "progress", Operation: "update", JobID: id, Stage: "start"})

	for i, w := range works {
		report, err := s.update(ctx, w, dryRun)
		if err != nil {
			status := JobStatusFailed
			if ctx.Err() != nil {
				status = JobStatusCancelled
			}
			s.jobs.modify(id, func(j *Job) {
				j.Status = status
				j.Error = err.Error()
			})
			logging.Warn("update job stopped", "job", id, "work", w.Name, "status", status, "error", err)
			s.hub.Broadcast(ProgressMessage{Type: "error", Operation: "update", JobID: id, Stage: w.Name, Message: err.Error()})
			return
		}

		progress := (i + 1) * 100 / len(works)
		s.jobs.modify(id, func(j *Job) {
			j.Reports = append(j.Reports, report)
			j.Progress = progress
		})
		s.hub.Broadcast(ProgressMessage{
			Type:      "progress",
			Operation: "update",
			JobID:     id,
			Stage:     w.Name,
			Progress:  progress,
			Message:   string(report.Status),
		})
	}

	s.jobs.modify(id, func(j *Job) { j.Status = JobStatusCompleted })
	s.hub.Broadcast(ProgressMessage{Type: "complete", Operation: "update", JobID: id, Progress: 100})
}

func (s *Server) handleCreateUpdate(w http.ResponseWriter, r *http.Request) {
	if s.update == nil {
		respondErr(w, r, errors.NewUnsupported("snapshot updates", "the server has no fetcher"))
		return
	}

	var req UpdateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return
		}
	}

	works, err := lookupWorks(req.Works)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	names := make([]string, len(works))
	for i, work := range works {
		names[i] = work.Name
	}

	job, ctx := s.jobs.Create(s.ctx, names, req.Apply)
	logging.InfoContext(r.Context(), "update job created", "job", job.ID, "works", names, "apply", req.Apply)
	go s.runJob(ctx, job.ID, works, !req.Apply)
	respond(w, http.StatusAccepted, job)
}

// lookupWorks resolves work names or slugs; none means every work.
func lookupWorks(names []string) ([]visitors.Work, error) {
	if len(names) == 0 {
		return visitors.Works(), nil
	}
	works := make([]visitors.Work, 0, len(names))
	for _, name := range names {
		work, ok := visitors.Lookup(name)
		if !ok {
			return nil, &errors.ValidationError{Field: "works", Value: name, Message: "unknown work"}
		}
		works = append(works, work)
	}
	return works, nil
}

func (s *Server) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	respondList(w, s.jobs.List())
}

func (s *Server) handleGetUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.Get(id)
	if !ok {
		respondErr(w, r, errors.NewNotFound("job", id))
		return
	}
	respond(w, http.StatusOK, job)
}

func (s *Server) handleCancelUpdate(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Cancel(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case err != nil:
		respondErr(w, r, err)
	default:
		respond(w, http.StatusOK, job)
	}
}
