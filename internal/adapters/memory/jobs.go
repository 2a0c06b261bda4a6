package memory

import (
	"context"

	"onboardhub/internal/domain"
	"onboardhub/internal/ports"
)

const (
	jobQueued    = "queued"
	jobRunning   = "running"
	jobCompleted = "completed"
	jobFailed    = "failed"
)

var _ ports.JobRepository = (*Store)(nil)

// ClaimNext takes the oldest queued job.
func (s *Store) ClaimNext(_ context.Context) (ports.DocumentJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.st.jobs {
		if j.Status == jobQueued {
			j.Status = jobRunning
			j.Attempts++
			return ports.DocumentJob{ID: j.ID, DocumentID: j.DocumentID}, true, nil
		}
	}
	return ports.DocumentJob{}, false, nil
}

func (s *Store) MarkCompleted(_ context.Context, jobID string) error {
	return s.setJob(jobID, jobCompleted, "")
}

func (s *Store) MarkFailed(_ context.Context, jobID string, reason string) error {
	return s.setJob(jobID, jobFailed, reason)
}

func (s *Store) StartJobForDocument(_ context.Context, documentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.st.jobs {
		if j.DocumentID == documentID && j.Status == jobQueued {
			j.Status = jobRunning
			j.Attempts++
			return j.ID, nil
		}
	}
	return "", domain.ErrNotFound
}

// JobStatus reports a job's state; used by tests.
func (s *Store) JobStatus(jobID string) (status, reason string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.st.jobs {
		if j.ID == jobID {
			return j.Status, j.Reason, true
		}
	}
	return "", "", false
}

func (s *Store) setJob(jobID, status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.st.jobs {
		if j.ID == jobID {
			j.Status = status
			j.Reason = reason
			return nil
		}
	}
	return domain.ErrNotFound
}
