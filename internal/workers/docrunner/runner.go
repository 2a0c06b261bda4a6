package docrunner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"onboardhub/internal/ports"
)

// DocumentProcessor performs the OCR pipeline for a job's document id.
type DocumentProcessor interface {
	Process(ctx context.Context, documentID string) error
}

// Run starts worker goroutines that claim document jobs and process them. It
// returns once ctx is done and every worker has finished its current job.
func Run(ctx context.Context, repo ports.JobRepository, processor DocumentProcessor, concurrency int, pollInterval time.Duration, log logrus.FieldLogger) {
	if concurrency < 1 {
		return
	}
	jobsCh := make(chan ports.DocumentJob, concurrency)

	// dispatcher loop
	go func() {
		defer close(jobsCh)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						if ctx.Err() == nil {
							log.WithError(err).Error("job claim error")
						}
						break
					}
					if !found {
						break
					}
					select {
					case jobsCh <- job:
					case <-ctx.Done():
						_ = repo.MarkFailed(context.WithoutCancel(ctx), job.ID, "shutdown before dispatch")
						log.WithField("job_id", job.ID).Warn("shutdown before dispatch")
						return
					}
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			wlog := log.WithField("worker", idx)
			for job := range jobsCh {
				handle(ctx, repo, processor, job, wlog)
			}
		}(i)
	}
	wg.Wait()
}

func handle(ctx context.Context, repo ports.JobRepository, processor DocumentProcessor, job ports.DocumentJob, log logrus.FieldLogger) {
	jlog := log.WithFields(logrus.Fields{"job_id": job.ID, "document_id": job.DocumentID})
	// job bookkeeping must survive shutdown of the processing context
	bg := context.WithoutCancel(ctx)
	if err := processor.Process(ctx, job.DocumentID); err != nil {
		if merr := repo.MarkFailed(bg, job.ID, err.Error()); merr != nil {
			jlog.WithError(merr).Error("mark job failed")
		}
		jlog.WithError(err).Warn("job failed")
		return
	}
	if err := repo.MarkCompleted(bg, job.ID); err != nil {
		jlog.WithError(err).Error("complete job")
	}
}

// ProcessInline starts and processes a specific document synchronously using
// the same processor as the background workers.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor DocumentProcessor, documentID string) error {
	jobID, err := repo.StartJobForDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := processor.Process(ctx, documentID); err != nil {
		_ = repo.MarkFailed(context.WithoutCancel(ctx), jobID, err.Error())
		return err
	}
	return repo.MarkCompleted(ctx, jobID)
}
