package ports

import "context"

type DocumentJob struct {
	ID         string
	DocumentID string
}

// JobRepository supports claiming and updating document jobs.
type JobRepository interface {
	ClaimNext(ctx context.Context) (job DocumentJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	// StartJobForDocument claims the queued job of a specific document.
	StartJobForDocument(ctx context.Context, documentID string) (jobID string, err error)
}
