// internal/services/job_service.go
// Bounded worker pool for long-running background tasks (file exports,
// backups, outbound SMS) with a polled in-memory job registry.

package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks a background job through its lifecycle.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is a single background task's process-lifetime state. Jobs are
// never persisted; a process restart loses them.
type Job struct {
	ID          string
	Label       string
	Status      JobStatus
	SubmittedAt time.Time
	FinishedAt  *time.Time
	Result      interface{}
	Error       string
}

type jobTask struct {
	id string
	fn func(ctx context.Context) (interface{}, error)
}

// JobService runs submitted tasks on a fixed-size worker pool and keeps
// an in-memory record of every job's status for polling.
type JobService struct {
	logger *log.Logger
	tasks  chan jobTask

	mu   sync.Mutex
	jobs map[string]*Job

	wg sync.WaitGroup
}

// NewJobService starts workers background goroutines draining the task
// queue; defaults to 2 when workers < 1.
func NewJobService(workers int, logger *log.Logger) *JobService {
	if workers < 1 {
		workers = 2
	}
	s := &JobService{
		logger: logger,
		tasks:  make(chan jobTask, 64),
		jobs:   make(map[string]*Job),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *JobService) worker() {
	defer s.wg.Done()
	for task := range s.tasks {
		s.mu.Lock()
		job := s.jobs[task.id]
		job.Status = JobStatusRunning
		s.mu.Unlock()

		result, err := task.fn(context.Background())

		s.mu.Lock()
		now := time.Now()
		job.FinishedAt = &now
		if err != nil {
			job.Status = JobStatusFailed
			job.Error = err.Error()
		} else {
			job.Status = JobStatusCompleted
			job.Result = result
		}
		s.mu.Unlock()
	}
}

// Submit queues fn under label and returns a job id the caller can poll
// with Get. fn receives a background context, not the caller's request
// context, since jobs outlive the request that submitted them.
func (s *JobService) Submit(label string, fn func(ctx context.Context) (interface{}, error)) string {
	id := uuid.New().String()
	job := &Job{ID: id, Label: label, Status: JobStatusQueued, SubmittedAt: time.Now()}

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()

	s.tasks <- jobTask{id: id, fn: fn}
	return id
}

// Get returns a snapshot of a job's current state, or nil if unknown.
func (s *JobService) Get(jobID string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// Shutdown closes the task queue and waits for in-flight jobs to finish.
func (s *JobService) Shutdown() {
	close(s.tasks)
	s.wg.Wait()
}
