package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"onboardhub/internal/domain"
	"onboardhub/internal/ports"
)

// repos operates on one state, either the live one or a transaction copy.
type repos struct {
	st    *state
	store *Store
}

var _ ports.Repositories = (*repos)(nil)

// VendorRepository

func (r *repos) CreateVendor(_ context.Context, v domain.Vendor) error {
	if _, ok := r.st.vendors[v.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.st.vendors[v.ID] = v
	return nil
}

func (r *repos) GetVendor(_ context.Context, id string) (domain.Vendor, error) {
	v, ok := r.st.vendors[id]
	if !ok {
		return domain.Vendor{}, domain.ErrNotFound
	}
	return v, nil
}

func (r *repos) UpdateVendorStatus(_ context.Context, id string, status domain.VendorStatus, progress int) error {
	v, ok := r.st.vendors[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Status = status
	v.OnboardingProgress = progress
	v.UpdatedAt = r.store.now()
	r.st.vendors[id] = v
	return nil
}

// DocumentRepository

func (r *repos) CreateDocument(_ context.Context, d domain.Document) error {
	if _, ok := r.st.documents[d.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := r.st.vendors[d.VendorID]; !ok {
		return domain.ErrNotFound
	}
	r.st.documents[d.ID] = d
	r.st.documentOrder = append(r.st.documentOrder, d.ID)
	return nil
}

func (r *repos) GetDocument(_ context.Context, id string) (domain.Document, error) {
	d, ok := r.st.documents[id]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return d, nil
}

func (r *repos) ListDocumentsByVendor(_ context.Context, vendorID string) ([]domain.Document, error) {
	out := []domain.Document{}
	for i := len(r.st.documentOrder) - 1; i >= 0; i-- {
		d := r.st.documents[r.st.documentOrder[i]]
		if d.VendorID == vendorID {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Document) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})
	return out, nil
}

func (r *repos) UpdateDocument(_ context.Context, d domain.Document) error {
	cur, ok := r.st.documents[d.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = d.Status
	cur.ExtractedData = d.ExtractedData
	cur.ProcessedAt = d.ProcessedAt
	r.st.documents[d.ID] = cur
	return nil
}

func (r *repos) EnqueueDocumentJob(_ context.Context, documentID string) (string, error) {
	if _, ok := r.st.documents[documentID]; !ok {
		return "", domain.ErrNotFound
	}
	j := &job{ID: uuid.NewString(), DocumentID: documentID, Status: jobQueued, QueuedAt: r.store.now()}
	r.st.jobs = append(r.st.jobs, j)
	return j.ID, nil
}

// QuestionnaireRepository

func (r *repos) InsertQuestionnaire(_ context.Context, q domain.Questionnaire) error {
	r.st.questionnaires = append(r.st.questionnaires, q)
	return nil
}

func (r *repos) LatestQuestionnaire(_ context.Context, vendorID string) (bool, domain.Questionnaire, error) {
	var out domain.Questionnaire
	found := false
	for _, q := range r.st.questionnaires {
		if q.VendorID == vendorID && (!found || !q.CompletedAt.Before(out.CompletedAt)) {
			out, found = q, true
		}
	}
	return found, out, nil
}

// RiskScoreRepository

func (r *repos) InsertRiskScore(_ context.Context, s domain.RiskScore) error {
	r.st.scores = append(r.st.scores, s)
	return nil
}

func (r *repos) LatestRiskScore(_ context.Context, vendorID string) (bool, domain.RiskScore, error) {
	var out domain.RiskScore
	found := false
	for _, s := range r.st.scores {
		if s.VendorID == vendorID && (!found || !s.CalculatedAt.Before(out.CalculatedAt)) {
			out, found = s, true
		}
	}
	return found, out, nil
}

// ApprovalRepository

func (r *repos) InsertApproval(_ context.Context, w domain.ApprovalWorkflow) error {
	r.st.approvals = append(r.st.approvals, w)
	return nil
}

func (r *repos) ListApprovals(_ context.Context, vendorID string) ([]domain.ApprovalWorkflow, error) {
	out := []domain.ApprovalWorkflow{}
	for _, w := range r.st.approvals {
		if w.VendorID == vendorID {
			out = append(out, w)
		}
	}
	return out, nil
}

// AuditRepository

func (r *repos) AppendAudit(_ context.Context, e domain.AuditLogEntry) error {
	if r.store.auditErr != nil {
		return r.store.auditErr
	}
	r.st.audit = append(r.st.audit, e)
	return nil
}

func (r *repos) ListAudit(_ context.Context, vendorID string) ([]domain.AuditLogEntry, error) {
	out := []domain.AuditLogEntry{}
	for _, e := range r.st.audit {
		if e.VendorID != nil && *e.VendorID == vendorID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.AuditLogEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}
