// Package batch runs asynchronous multi-merchant validation jobs and tracks
// their lifecycle.
package batch

import (
	"sync"
	"time"

	"github.com/locusaudit/merchant-validation/internal/validation"
)

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

// Job lifecycle states. The only transitions are PENDING to PROCESSING and
// PROCESSING to COMPLETED or FAILED; terminal states never change again.
const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// Job is one batch validation job. ProcessedItems only ever grows, and
// Results holds one entry per processed item in submission order.
type Job struct {
	ID             string               `json:"batch_id"`
	Status         JobStatus            `json:"status"`
	TotalItems     int                  `json:"total_items"`
	ProcessedItems int                  `json:"processed_items"`
	CreatedAt      time.Time            `json:"created_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	Results        []*validation.Result `json:"results,omitempty"`
}

// Store is an in-memory job registry safe for concurrent use. Readers always
// see a consistent snapshot: status, progress and results are copied out
// under the same lock the worker writes under.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Put registers a job.
func (s *Store) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Snapshot returns a copy of the job with the given identifier, or nil when
// no such job exists.
func (s *Store) Snapshot(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil
	}

	out := *job
	out.Results = make([]*validation.Result, len(job.Results))
	copy(out.Results, job.Results)
	if job.CompletedAt != nil {
		done := *job.CompletedAt
		out.CompletedAt = &done
	}
	return &out
}

// update mutates a job under the write lock. The worker goroutine funnels
// every state change through here so snapshots stay consistent.
func (s *Store) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}
