// Package memory is an in-process implementation of the store, job queue and
// lock ports. Transactions run against a copy of the state that replaces the
// live state only when the transaction function succeeds.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"onboardhub/internal/domain"
	"onboardhub/internal/ports"
)

type job struct {
	ID         string
	DocumentID string
	Status     string
	QueuedAt   time.Time
	Attempts   int
	Reason     string
}

type state struct {
	vendors        map[string]domain.Vendor
	documents      map[string]domain.Document
	documentOrder  []string
	questionnaires []domain.Questionnaire
	scores         []domain.RiskScore
	approvals      []domain.ApprovalWorkflow
	audit          []domain.AuditLogEntry
	jobs           []*job
}

func newState() *state {
	return &state{
		vendors:   map[string]domain.Vendor{},
		documents: map[string]domain.Document{},
	}
}

func (s *state) clone() *state {
	c := &state{
		vendors:        maps.Clone(s.vendors),
		documents:      maps.Clone(s.documents),
		documentOrder:  slices.Clone(s.documentOrder),
		questionnaires: slices.Clone(s.questionnaires),
		scores:         slices.Clone(s.scores),
		approvals:      slices.Clone(s.approvals),
		audit:          slices.Clone(s.audit),
		jobs:           make([]*job, len(s.jobs)),
	}
	for i, j := range s.jobs {
		cp := *j
		c.jobs[i] = &cp
	}
	return c
}

// Store is safe for concurrent use. A transaction holds the store for its
// whole duration; fn must only use the repositories it is given.
type Store struct {
	mu       sync.Mutex
	st       *state
	auditErr error
	now      func() time.Time
}

var _ ports.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// FailAuditWith makes every subsequent audit append return err. Pass nil to
// restore normal behaviour.
func (s *Store) FailAuditWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditErr = err
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&repos{st: work, store: s}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) do(fn func(r *repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&repos{st: s.st, store: s})
}

func (s *Store) CreateVendor(ctx context.Context, v domain.Vendor) error {
	return s.do(func(r *repos) error { return r.CreateVendor(ctx, v) })
}

func (s *Store) GetVendor(ctx context.Context, id string) (v domain.Vendor, err error) {
	err = s.do(func(r *repos) error { v, err = r.GetVendor(ctx, id); return err })
	return v, err
}

func (s *Store) UpdateVendorStatus(ctx context.Context, id string, status domain.VendorStatus, progress int) error {
	return s.do(func(r *repos) error { return r.UpdateVendorStatus(ctx, id, status, progress) })
}

func (s *Store) CreateDocument(ctx context.Context, d domain.Document) error {
	return s.do(func(r *repos) error { return r.CreateDocument(ctx, d) })
}

func (s *Store) GetDocument(ctx context.Context, id string) (d domain.Document, err error) {
	err = s.do(func(r *repos) error { d, err = r.GetDocument(ctx, id); return err })
	return d, err
}

func (s *Store) ListDocumentsByVendor(ctx context.Context, vendorID string) (out []domain.Document, err error) {
	err = s.do(func(r *repos) error { out, err = r.ListDocumentsByVendor(ctx, vendorID); return err })
	return out, err
}

func (s *Store) UpdateDocument(ctx context.Context, d domain.Document) error {
	return s.do(func(r *repos) error { return r.UpdateDocument(ctx, d) })
}

func (s *Store) EnqueueDocumentJob(ctx context.Context, documentID string) (id string, err error) {
	err = s.do(func(r *repos) error { id, err = r.EnqueueDocumentJob(ctx, documentID); return err })
	return id, err
}

func (s *Store) InsertQuestionnaire(ctx context.Context, q domain.Questionnaire) error {
	return s.do(func(r *repos) error { return r.InsertQuestionnaire(ctx, q) })
}

func (s *Store) LatestQuestionnaire(ctx context.Context, vendorID string) (ok bool, q domain.Questionnaire, err error) {
	err = s.do(func(r *repos) error { ok, q, err = r.LatestQuestionnaire(ctx, vendorID); return err })
	return ok, q, err
}

func (s *Store) InsertRiskScore(ctx context.Context, rs domain.RiskScore) error {
	return s.do(func(r *repos) error { return r.InsertRiskScore(ctx, rs) })
}

func (s *Store) LatestRiskScore(ctx context.Context, vendorID string) (ok bool, rs domain.RiskScore, err error) {
	err = s.do(func(r *repos) error { ok, rs, err = r.LatestRiskScore(ctx, vendorID); return err })
	return ok, rs, err
}

func (s *Store) InsertApproval(ctx context.Context, w domain.ApprovalWorkflow) error {
	return s.do(func(r *repos) error { return r.InsertApproval(ctx, w) })
}

func (s *Store) ListApprovals(ctx context.Context, vendorID string) (out []domain.ApprovalWorkflow, err error) {
	err = s.do(func(r *repos) error { out, err = r.ListApprovals(ctx, vendorID); return err })
	return out, err
}

func (s *Store) AppendAudit(ctx context.Context, e domain.AuditLogEntry) error {
	return s.do(func(r *repos) error { return r.AppendAudit(ctx, e) })
}

func (s *Store) ListAudit(ctx context.Context, vendorID string) (out []domain.AuditLogEntry, err error) {
	err = s.do(func(r *repos) error { out, err = r.ListAudit(ctx, vendorID); return err })
	return out, err
}
