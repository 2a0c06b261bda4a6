package docrunner

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"onboardhub/internal/adapters/memory"
	"onboardhub/internal/domain"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen map[string]int
	fail map[string]bool
}

func (p *recordingProcessor) Process(_ context.Context, documentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[documentID]++
	if p.fail[documentID] {
		return errors.New("ocr processing failed")
	}
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func seed(t *testing.T, ids ...string) (*memory.Store, map[string]string) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	_ = store.CreateVendor(ctx, domain.Vendor{ID: "v1"})
	jobs := map[string]string{}
	for _, id := range ids {
		if err := store.CreateDocument(ctx, domain.Document{ID: id, VendorID: "v1"}); err != nil {
			t.Fatal(err)
		}
		jobID, err := store.EnqueueDocumentJob(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		jobs[id] = jobID
	}
	return store, jobs
}

func TestRunProcessesQueuedJobs(t *testing.T) {
	store, jobs := seed(t, "d1", "d2", "d3")
	proc := &recordingProcessor{seen: map[string]int{}, fail: map[string]bool{"d2": true}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, store, proc, 2, time.Millisecond, quietLogger())
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		allDone := true
		for _, jobID := range jobs {
			if st, _, _ := store.JobStatus(jobID); st != "completed" && st != "failed" {
				allDone = false
			}
		}
		if allDone {
			break
		}
		select {
		case <-deadline:
			t.Fatal("jobs not processed in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if st, reason, _ := store.JobStatus(jobs["d2"]); st != "failed" || reason == "" {
		t.Errorf("d2 job = %s %q", st, reason)
	}
	if st, _, _ := store.JobStatus(jobs["d1"]); st != "completed" {
		t.Errorf("d1 job = %s", st)
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	for _, id := range []string{"d1", "d2", "d3"} {
		if proc.seen[id] != 1 {
			t.Errorf("%s processed %d times", id, proc.seen[id])
		}
	}
}

func TestProcessInline(t *testing.T) {
	store, jobs := seed(t, "d1", "d2")
	proc := &recordingProcessor{seen: map[string]int{}, fail: map[string]bool{"d2": true}}
	ctx := context.Background()

	if err := ProcessInline(ctx, store, proc, "d1"); err != nil {
		t.Fatal(err)
	}
	if st, _, _ := store.JobStatus(jobs["d1"]); st != "completed" {
		t.Fatalf("d1 job = %s", st)
	}
	if err := ProcessInline(ctx, store, proc, "d2"); err == nil {
		t.Fatal("expected failure")
	}
	if st, _, _ := store.JobStatus(jobs["d2"]); st != "failed" {
		t.Fatalf("d2 job = %s", st)
	}
	if err := ProcessInline(ctx, store, proc, "d1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("no queued job err = %v", err)
	}
}

func TestRunZeroConcurrencyReturns(t *testing.T) {
	store, _ := seed(t)
	Run(context.Background(), store, &recordingProcessor{}, 0, time.Millisecond, quietLogger())
}
