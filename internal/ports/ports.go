package ports

import (
	"context"
	"io"
	"time"

	"onboardhub/internal/domain"
)

// Vendors registers vendors and applies lifecycle actions.
type Vendors interface {
	Create(ctx context.Context, in domain.NewVendor) (domain.Vendor, error)
	Get(ctx context.Context, id string) (domain.Vendor, error)
	Status(ctx context.Context, id string) (domain.StatusReport, error)
	SubmitQuestionnaire(ctx context.Context, vendorID, actor string, in domain.QuestionnaireSubmission) (domain.Questionnaire, error)
	Transition(ctx context.Context, vendorID string, to domain.VendorStatus, actor string) (domain.Vendor, error)
	Decide(ctx context.Context, vendorID string, d domain.Decision) (domain.ApprovalWorkflow, error)
	Audit(ctx context.Context, vendorID string) ([]domain.AuditLogEntry, error)
}

// Documents runs intake and the OCR pipeline.
type Documents interface {
	Intake(ctx context.Context, n domain.UploadNotification) (domain.IntakeResult, error)
	Get(ctx context.Context, id string) (domain.Document, error)
	Process(ctx context.Context, documentID string) error
	MarkFailed(ctx context.Context, documentID, actor string) (domain.Document, error)
	Verify(ctx context.Context, documentID, actor string) (domain.Document, error)
	Reprocess(ctx context.Context, documentID string) (jobID string, err error)
}

// Scoring computes and retrieves risk scores.
type Scoring interface {
	Assess(ctx context.Context, vendorID, actor string) (domain.RiskScore, error)
	Latest(ctx context.Context, vendorID string) (domain.RiskScore, error)
}

// ObjectInfo is document metadata read from the object store.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStore reads document bytes by bucket and key.
type ObjectStore interface {
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// SanctionsScreener checks a company against sanctions lists.
type SanctionsScreener interface {
	Screen(ctx context.Context, companyName, taxID string) (domain.SanctionsResult, error)
}

// Locker grants short-lived exclusive locks. Obtain returns domain.ErrLocked
// when another holder has the key.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Credentials are relational store connection settings.
type Credentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Name     string `json:"dbname"`
	User     string `json:"username"`
	Password string `json:"password"`
}

type CredentialProvider interface {
	DatabaseCredentials(ctx context.Context) (Credentials, error)
}
