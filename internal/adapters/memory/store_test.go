package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"onboardhub/internal/domain"
	"onboardhub/internal/ports"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if err := s.CreateVendor(ctx, domain.Vendor{ID: "v1", Status: domain.VendorSubmitted}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx ports.Repositories) error {
		if err := tx.UpdateVendorStatus(ctx, "v1", domain.VendorApproved, 100); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	v, _ := s.GetVendor(ctx, "v1")
	if v.Status != domain.VendorSubmitted {
		t.Fatalf("status = %s, rollback not applied", v.Status)
	}
}

func TestFailAuditWith(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.FailAuditWith(errors.New("disk full"))
	if err := s.AppendAudit(ctx, domain.AuditLogEntry{ID: "a"}); err == nil {
		t.Fatal("expected injected error")
	}
	s.FailAuditWith(nil)
	if err := s.AppendAudit(ctx, domain.AuditLogEntry{ID: "a"}); err != nil {
		t.Fatal(err)
	}
}

func TestDocumentsNewestFirstAndDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.CreateVendor(ctx, domain.Vendor{ID: "v1"})
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.CreateDocument(ctx, domain.Document{ID: "d1", VendorID: "v1", UploadedAt: t0})
	_ = s.CreateDocument(ctx, domain.Document{ID: "d2", VendorID: "v1", UploadedAt: t0.Add(time.Hour)})
	if err := s.CreateDocument(ctx, domain.Document{ID: "d1", VendorID: "v1"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate err = %v", err)
	}
	docs, _ := s.ListDocumentsByVendor(ctx, "v1")
	if len(docs) != 2 || docs[0].ID != "d2" {
		t.Fatalf("docs = %+v", docs)
	}
}

func TestLatestRiskScoreByCalculatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	t0 := time.Now()
	_ = s.InsertRiskScore(ctx, domain.RiskScore{ID: "new", VendorID: "v1", CalculatedAt: t0.Add(time.Minute)})
	_ = s.InsertRiskScore(ctx, domain.RiskScore{ID: "old", VendorID: "v1", CalculatedAt: t0})
	ok, rs, err := s.LatestRiskScore(ctx, "v1")
	if err != nil || !ok || rs.ID != "new" {
		t.Fatalf("latest = %v %+v %v", ok, rs, err)
	}
	if ok, _, _ := s.LatestRiskScore(ctx, "other"); ok {
		t.Fatal("unexpected score for unknown vendor")
	}
}

func TestJobQueue(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.CreateVendor(ctx, domain.Vendor{ID: "v1"})
	_ = s.CreateDocument(ctx, domain.Document{ID: "d1", VendorID: "v1"})
	_ = s.CreateDocument(ctx, domain.Document{ID: "d2", VendorID: "v1"})
	j1, _ := s.EnqueueDocumentJob(ctx, "d1")
	j2, _ := s.EnqueueDocumentJob(ctx, "d2")

	id, err := s.StartJobForDocument(ctx, "d2")
	if err != nil || id != j2 {
		t.Fatalf("start = %s %v", id, err)
	}
	job, found, _ := s.ClaimNext(ctx)
	if !found || job.ID != j1 {
		t.Fatalf("claimed %+v", job)
	}
	if _, found, _ := s.ClaimNext(ctx); found {
		t.Fatal("queue should be empty")
	}
	_ = s.MarkFailed(ctx, j1, "ocr timeout")
	if st, reason, _ := s.JobStatus(j1); st != jobFailed || reason != "ocr timeout" {
		t.Fatalf("job = %s %s", st, reason)
	}
	if _, err := s.StartJobForDocument(ctx, "d1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()
	release, err := l.Obtain(ctx, "doc:d1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Obtain(ctx, "doc:d1", time.Minute); !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("err = %v", err)
	}
	_ = release(ctx)
	if _, err := l.Obtain(ctx, "doc:d1", time.Minute); err != nil {
		t.Fatal(err)
	}
}
