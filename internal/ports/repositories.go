package ports

import (
	"context"

	"onboardhub/internal/domain"
)

// VendorRepository stores vendors by id.
type VendorRepository interface {
	CreateVendor(ctx context.Context, v domain.Vendor) error
	GetVendor(ctx context.Context, id string) (domain.Vendor, error)
	UpdateVendorStatus(ctx context.Context, id string, status domain.VendorStatus, progress int) error
}

// DocumentRepository manages document rows and their processing jobs.
type DocumentRepository interface {
	// CreateDocument returns domain.ErrAlreadyExists for a known id.
	CreateDocument(ctx context.Context, d domain.Document) error
	GetDocument(ctx context.Context, id string) (domain.Document, error)
	// ListDocumentsByVendor returns newest first.
	ListDocumentsByVendor(ctx context.Context, vendorID string) ([]domain.Document, error)
	// UpdateDocument persists status, extracted data and processed time.
	UpdateDocument(ctx context.Context, d domain.Document) error
	EnqueueDocumentJob(ctx context.Context, documentID string) (jobID string, err error)
}

type QuestionnaireRepository interface {
	InsertQuestionnaire(ctx context.Context, q domain.Questionnaire) error
	LatestQuestionnaire(ctx context.Context, vendorID string) (exists bool, q domain.Questionnaire, err error)
}

// RiskScoreRepository is append-only; the current score is the latest by
// calculated_at.
type RiskScoreRepository interface {
	InsertRiskScore(ctx context.Context, s domain.RiskScore) error
	LatestRiskScore(ctx context.Context, vendorID string) (exists bool, s domain.RiskScore, err error)
}

type ApprovalRepository interface {
	InsertApproval(ctx context.Context, w domain.ApprovalWorkflow) error
	ListApprovals(ctx context.Context, vendorID string) ([]domain.ApprovalWorkflow, error)
}

type AuditRepository interface {
	AppendAudit(ctx context.Context, e domain.AuditLogEntry) error
	// ListAudit returns entries oldest first.
	ListAudit(ctx context.Context, vendorID string) ([]domain.AuditLogEntry, error)
}

// Repositories is every repository bound to one connection or transaction.
type Repositories interface {
	VendorRepository
	DocumentRepository
	QuestionnaireRepository
	RiskScoreRepository
	ApprovalRepository
	AuditRepository
}

// Store runs fn inside a single transaction. fn's writes are committed only
// when it returns nil.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
}
