package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxAttempts  = 60
)

type Outcome string

const (
	OutcomeSucceeded  Outcome = "succeeded"
	OutcomeFailed     Outcome = "failed"
	OutcomeTimedOut   Outcome = "timed_out"
	OutcomeInvalidJob Outcome = "invalid_job"
)

// Result is the terminal state of one submitted job.
type Result struct {
	Outcome  Outcome
	JobID    string
	Attempts int
	Record   *ExtractedRecord
	Message  string
}

func (r Result) Succeeded() bool { return r.Outcome == OutcomeSucceeded }

// Failure is the structured record persisted for an unsuccessful job.
type Failure struct {
	Error         string  `json:"error"`
	Outcome       Outcome `json:"outcome"`
	StatusMessage string  `json:"status_message,omitempty"`
	JobID         string  `json:"ocr_job_id,omitempty"`
	Attempts      int     `json:"attempts"`
	Confidence    float64 `json:"confidence"`
}

// Failure converts a non-successful result into its persisted form.
func (r Result) Failure() Failure {
	f := Failure{Outcome: r.Outcome, JobID: r.JobID, Attempts: r.Attempts, StatusMessage: r.Message}
	switch r.Outcome {
	case OutcomeTimedOut:
		f.Error = "OCR processing timeout"
	case OutcomeInvalidJob:
		f.Error = "Invalid job ID"
	default:
		f.Error = "OCR processing failed"
	}
	return f
}

type DriverOption func(*Driver)

func WithPollInterval(d time.Duration) DriverOption {
	return func(dr *Driver) { dr.interval = d }
}

func WithMaxAttempts(n int) DriverOption {
	return func(dr *Driver) { dr.maxAttempts = n }
}

func WithClock(now func() time.Time) DriverOption {
	return func(dr *Driver) { dr.now = now }
}

func WithLogger(log logrus.FieldLogger) DriverOption {
	return func(dr *Driver) { dr.log = log }
}

// Driver submits a document and waits for the job under a bounded poll budget.
// Each Run owns its own job handle; concurrent Runs share nothing.
type Driver struct {
	svc         Service
	interval    time.Duration
	maxAttempts int
	now         func() time.Time
	log         logrus.FieldLogger
}

func NewDriver(svc Service, opts ...DriverOption) *Driver {
	d := &Driver{
		svc:         svc,
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		log:         logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.maxAttempts < 1 {
		d.maxAttempts = 1
	}
	return d
}

// Budget is the longest Run waits on polling alone: interval × attempts.
// Callers bounding Run with a deadline need to allow at least this much plus
// submission and per-poll latency.
func (d *Driver) Budget() time.Duration {
	return d.interval * time.Duration(d.maxAttempts)
}

// ClientToken derives the idempotency token from the storage key and the
// submission second.
func ClientToken(key string, at time.Time) string {
	return fmt.Sprintf("%s_%d", strings.ReplaceAll(key, "/", "_"), at.Unix())
}

// Run submits loc and polls until the job leaves IN_PROGRESS or the attempt
// budget is spent. Submission errors are returned as errors and never retried.
// A cancelled ctx stops the wait and returns ctx.Err(); once a job was
// submitted the returned Result still carries its id and the polls made.
func (d *Driver) Run(ctx context.Context, loc Location) (Result, error) {
	jobID, err := d.svc.StartAnalysis(ctx, AnalysisRequest{
		Location:    loc,
		ClientToken: ClientToken(loc.Key, d.now()),
		Features:    []Feature{FeatureTables, FeatureForms},
	})
	if err != nil {
		return Result{}, fmt.Errorf("submit ocr job: %w", err)
	}
	log := d.log.WithField("ocr_job_id", jobID)
	log.Debug("ocr job submitted")

	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		res, err := d.svc.GetAnalysis(ctx, jobID)
		switch {
		case errors.Is(err, ErrInvalidJob):
			log.Warn("ocr job handle rejected")
			return Result{Outcome: OutcomeInvalidJob, JobID: jobID, Attempts: attempt}, nil
		case err != nil:
			if ctx.Err() != nil {
				return Result{JobID: jobID, Attempts: attempt}, ctx.Err()
			}
			log.WithError(err).Warn("ocr poll failed")
			return Result{Outcome: OutcomeFailed, JobID: jobID, Attempts: attempt, Message: err.Error()}, nil
		}

		switch res.Status {
		case JobSucceeded:
			rec := Normalize(res.Blocks)
			rec.JobID = jobID
			return Result{Outcome: OutcomeSucceeded, JobID: jobID, Attempts: attempt, Record: &rec}, nil
		case JobFailed:
			msg := res.StatusMessage
			if msg == "" {
				msg = "Unknown error"
			}
			log.WithField("status_message", msg).Warn("ocr job failed")
			return Result{Outcome: OutcomeFailed, JobID: jobID, Attempts: attempt, Message: msg}, nil
		}

		if attempt == d.maxAttempts {
			break
		}
		timer.Reset(d.interval)
		select {
		case <-ctx.Done():
			return Result{JobID: jobID, Attempts: attempt}, ctx.Err()
		case <-timer.C:
		}
	}

	log.WithField("attempts", d.maxAttempts).Warn("ocr job timed out")
	return Result{Outcome: OutcomeTimedOut, JobID: jobID, Attempts: d.maxAttempts}, nil
}
