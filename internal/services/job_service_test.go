package services

import (
	"context"
	"errors"
	"log"
	"io"
	"testing"
	"time"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func waitForFinish(t *testing.T, s *JobService, jobID string) *Job {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		job := s.Get(jobID)
		if job == nil {
			t.Fatalf("job %s vanished from the registry", jobID)
		}
		if job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("job %s did not finish in time, last status %s", jobID, job.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestJobServiceRunsSubmittedTaskToCompletion(t *testing.T) {
	s := NewJobService(1, testLogger())
	defer s.Shutdown()

	id := s.Submit("export", func(ctx context.Context) (interface{}, error) {
		return 42, nil
	})

	job := waitForFinish(t, s, id)
	if job.Status != JobStatusCompleted {
		t.Fatalf("got status %s, want completed", job.Status)
	}
	if job.Result != 42 {
		t.Errorf("got result %v, want 42", job.Result)
	}
	if job.Label != "export" {
		t.Errorf("got label %q, want export", job.Label)
	}
}

func TestJobServiceRecordsTaskFailure(t *testing.T) {
	s := NewJobService(1, testLogger())
	defer s.Shutdown()

	id := s.Submit("broken", func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	})

	job := waitForFinish(t, s, id)
	if job.Status != JobStatusFailed {
		t.Fatalf("got status %s, want failed", job.Status)
	}
	if job.Error != "boom" {
		t.Errorf("got error %q, want boom", job.Error)
	}
}

func TestJobServiceGetUnknownReturnsNil(t *testing.T) {
	s := NewJobService(1, testLogger())
	defer s.Shutdown()

	if got := s.Get("does-not-exist"); got != nil {
		t.Errorf("expected nil for an unknown job id, got %+v", got)
	}
}

func TestJobServiceDefaultsWorkerCount(t *testing.T) {
	s := NewJobService(0, testLogger())
	defer s.Shutdown()

	// Submitting more tasks than a single worker could serialize quickly
	// is just a smoke test that the pool actually runs them concurrently;
	// the real assertion is that every task still completes.
	ids := make([]string, 5)
	for i := range ids {
		ids[i] = s.Submit("batch", func(ctx context.Context) (interface{}, error) {
			time.Sleep(10 * time.Millisecond)
			return "done", nil
		})
	}
	for _, id := range ids {
		job := waitForFinish(t, s, id)
		if job.Status != JobStatusCompleted {
			t.Errorf("job %s: got status %s, want completed", id, job.Status)
		}
	}
}
