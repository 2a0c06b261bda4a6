package domain

import (
	"encoding/json"
	"time"
)

// Core domain models used internally. HTTP payloads live in the http adapter;
// keep these decoupled from wire shapes where helpful.

type Vendor struct {
	ID                 string
	CompanyName        string
	TaxID              string // EIN
	Address            string
	ContactEmail       string
	ContactPhone       string
	EmailDomain        string
	Status             VendorStatus
	OnboardingProgress int
	Integrations       Integrations
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Integrations holds identifiers issued by downstream onboarding systems.
type Integrations struct {
	KY3PAssessmentID   string `json:"ky3p_assessment_id,omitempty"`
	SLPSupplierID      string `json:"slp_supplier_id,omitempty"`
	AribaAccountNumber string `json:"ariba_account_number,omitempty"`
}

// StorageRef locates a document's bytes in the object store.
type StorageRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type Document struct {
	ID            string
	VendorID      string
	Type          DocumentType
	Status        DocumentStatus
	Storage       StorageRef
	ExtractedData json.RawMessage
	SizeBytes     int64
	MIMEType      string
	SHA256        string
	UploadedAt    time.Time
	ProcessedAt   *time.Time
}

type Questionnaire struct {
	ID                   string
	VendorID             string
	Answers              map[string]any
	TotalQuestions       int
	AnsweredQuestions    int
	CompletionPercentage float64
	AutoFilled           bool
	CompletedAt          time.Time
}

// SanctionsResult is the screening blob stored with each risk score.
type SanctionsResult struct {
	Matches        int       `json:"matches"`
	ListsChecked   []string  `json:"lists_checked"`
	ResponseTimeMS int       `json:"response_time_ms"`
	ScreenedAt     time.Time `json:"screened_at"`
}

// Findings are the per-dimension narrative lines produced by the scoring engine.
type Findings struct {
	Financial     []string `json:"financial"`
	Compliance    []string `json:"compliance"`
	Cybersecurity []string `json:"cybersecurity"`
	ESG           []string `json:"esg"`
}

// RiskScore is write-once. A reassessment inserts a new row.
type RiskScore struct {
	ID              string
	VendorID        string
	Financial       int
	Compliance      int
	Cyber           int
	ESG             int
	Overall         int
	Level           RiskLevel
	Sanctions       SanctionsResult
	RedFlags        []string
	Findings        Findings
	Recommendations []string
	CalculatedAt    time.Time
	ExpiresAt       time.Time
}

type ApprovalWorkflow struct {
	ID            string
	VendorID      string
	CurrentStep   string
	Status        ApprovalStatus
	FinalDecision bool
	Comments      string
	DecisionBy    string
	DecisionAt    time.Time
	CreatedAt     time.Time
}

// AuditLogEntry is append-only.
type AuditLogEntry struct {
	ID           string
	VendorID     *string
	Action       string
	Actor        string
	Metadata     map[string]any
	Success      bool
	ErrorMessage string
	Timestamp    time.Time
}

const (
	ActionVendorCreated            = "vendor_created"
	ActionVendorStatusChanged      = "vendor_status_changed"
	ActionQuestionnaireSubmitted   = "questionnaire_submitted"
	ActionDocumentUploaded         = "document_uploaded"
	ActionDocumentProcessed        = "document_processed"
	ActionDocumentProcessingFailed = "document_processing_failed"
	ActionDocumentFailed           = "document_failed"
	ActionDocumentVerified         = "document_verified"
	ActionRiskAssessmentCompleted  = "risk_assessment_completed"
)

// DecisionAction returns the audit tag for an approval decision.
func DecisionAction(approved bool) string {
	if approved {
		return "vendor_approved"
	}
	return "vendor_rejected"
}

// SystemActor is recorded when no authenticated identity is available.
const SystemActor = "system"
