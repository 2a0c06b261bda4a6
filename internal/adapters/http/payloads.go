package httpadapter

import (
	"encoding/json"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"onboardhub/internal/domain"
)

// Requests

type createVendorRequest struct {
	CompanyName  string              `json:"company_name"`
	ContactEmail openapi_types.Email `json:"contact_email"`
	EIN          string              `json:"ein"`
	Address      string              `json:"address"`
	ContactPhone string              `json:"contact_phone"`
}

type questionnaireRequest struct {
	Answers        map[string]any `json:"answers"`
	TotalQuestions int            `json:"total_questions"`
	AutoFilled     bool           `json:"auto_filled"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type decisionRequest struct {
	Approved *bool  `json:"approved"`
	Comments string `json:"comments"`
}

type notificationRequest struct {
	Bucket       string              `json:"bucket"`
	Key          string              `json:"key"`
	VendorID     *openapi_types.UUID `json:"vendor_id,omitempty"`
	DocumentID   *openapi_types.UUID `json:"document_id,omitempty"`
	DocumentType string              `json:"document_type,omitempty"`
}

func (n notificationRequest) toDomain() domain.UploadNotification {
	out := domain.UploadNotification{Bucket: n.Bucket, Key: n.Key, DocumentType: n.DocumentType}
	if n.VendorID != nil {
		out.VendorID = n.VendorID.String()
	}
	if n.DocumentID != nil {
		out.DocumentID = n.DocumentID.String()
	}
	return out
}

// Responses

type vendorResponse struct {
	ID                 string              `json:"id"`
	CompanyName        string              `json:"company_name"`
	EIN                string              `json:"ein,omitempty"`
	Address            string              `json:"address,omitempty"`
	ContactEmail       string              `json:"contact_email"`
	ContactPhone       string              `json:"contact_phone,omitempty"`
	EmailDomain        string              `json:"email_domain,omitempty"`
	Status             domain.VendorStatus `json:"status"`
	OnboardingProgress int                 `json:"onboarding_progress"`
	Integrations       domain.Integrations `json:"integrations"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func toVendor(v domain.Vendor) vendorResponse {
	return vendorResponse{
		ID:                 v.ID,
		CompanyName:        v.CompanyName,
		EIN:                v.TaxID,
		Address:            v.Address,
		ContactEmail:       v.ContactEmail,
		ContactPhone:       v.ContactPhone,
		EmailDomain:        v.EmailDomain,
		Status:             v.Status,
		OnboardingProgress: v.OnboardingProgress,
		Integrations:       v.Integrations,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}

type documentResponse struct {
	ID            string                `json:"id"`
	VendorID      string                `json:"vendor_id"`
	DocumentType  domain.DocumentType   `json:"document_type"`
	Status        domain.DocumentStatus `json:"status"`
	Bucket        string                `json:"s3_bucket"`
	Key           string                `json:"s3_key"`
	ExtractedData json.RawMessage       `json:"extracted_data,omitempty"`
	FileSize      int64                 `json:"file_size,omitempty"`
	MIMEType      string                `json:"mime_type,omitempty"`
	SHA256        string                `json:"sha256,omitempty"`
	UploadedAt    time.Time             `json:"uploaded_at"`
	ProcessedAt   *time.Time            `json:"processed_at,omitempty"`
}

func toDocument(d domain.Document) documentResponse {
	return documentResponse{
		ID:            d.ID,
		VendorID:      d.VendorID,
		DocumentType:  d.Type,
		Status:        d.Status,
		Bucket:        d.Storage.Bucket,
		Key:           d.Storage.Key,
		ExtractedData: d.ExtractedData,
		FileSize:      d.SizeBytes,
		MIMEType:      d.MIMEType,
		SHA256:        d.SHA256,
		UploadedAt:    d.UploadedAt,
		ProcessedAt:   d.ProcessedAt,
	}
}

func toDocuments(ds []domain.Document) []documentResponse {
	out := make([]documentResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDocument(d))
	}
	return out
}

type approvalResponse struct {
	ID            string                `json:"id"`
	VendorID      string                `json:"vendor_id"`
	CurrentStep   string                `json:"current_step"`
	Status        domain.ApprovalStatus `json:"status"`
	FinalDecision bool                  `json:"final_decision"`
	Comments      string                `json:"decision_comments,omitempty"`
	DecisionBy    string                `json:"decision_by"`
	DecisionAt    time.Time             `json:"decision_at"`
}

func toApproval(w domain.ApprovalWorkflow) approvalResponse {
	return approvalResponse{
		ID:            w.ID,
		VendorID:      w.VendorID,
		CurrentStep:   w.CurrentStep,
		Status:        w.Status,
		FinalDecision: w.FinalDecision,
		Comments:      w.Comments,
		DecisionBy:    w.DecisionBy,
		DecisionAt:    w.DecisionAt,
	}
}

type dimensionScores struct {
	Financial     int `json:"financial"`
	Compliance    int `json:"compliance"`
	Cybersecurity int `json:"cybersecurity"`
	ESG           int `json:"esg"`
}

type riskScoreResponse struct {
	ID              string                 `json:"id"`
	VendorID        string                 `json:"vendor_id"`
	OverallScore    int                    `json:"overall_score"`
	RiskLevel       domain.RiskLevel       `json:"risk_level"`
	Scores          dimensionScores        `json:"scores"`
	Sanctions       domain.SanctionsResult `json:"sanctions_result"`
	RedFlags        []string               `json:"red_flags"`
	Findings        domain.Findings        `json:"findings"`
	Recommendations []string               `json:"recommendations"`
	CalculatedAt    time.Time              `json:"calculated_at"`
	NextReviewAt    time.Time              `json:"next_review_at"`
}

func toRiskScore(s domain.RiskScore) riskScoreResponse {
	flags := s.RedFlags
	if flags == nil {
		flags = []string{}
	}
	return riskScoreResponse{
		ID:           s.ID,
		VendorID:     s.VendorID,
		OverallScore: s.Overall,
		RiskLevel:    s.Level,
		Scores: dimensionScores{
			Financial:     s.Financial,
			Compliance:    s.Compliance,
			Cybersecurity: s.Cyber,
			ESG:           s.ESG,
		},
		Sanctions:       s.Sanctions,
		RedFlags:        flags,
		Findings:        s.Findings,
		Recommendations: s.Recommendations,
		CalculatedAt:    s.CalculatedAt,
		NextReviewAt:    s.ExpiresAt,
	}
}

type statusResponse struct {
	Vendor              vendorResponse     `json:"vendor"`
	Documents           []documentResponse `json:"documents"`
	Approvals           []approvalResponse `json:"approvals"`
	HasESGQuestionnaire bool               `json:"has_esg_questionnaire"`
	NextSteps           []string           `json:"next_steps"`
	RiskScore           *riskScoreResponse `json:"risk_score,omitempty"`
}

func toStatus(r domain.StatusReport) statusResponse {
	out := statusResponse{
		Vendor:              toVendor(r.Vendor),
		Documents:           toDocuments(r.Documents),
		Approvals:           make([]approvalResponse, 0, len(r.Approvals)),
		HasESGQuestionnaire: r.HasESG,
		NextSteps:           r.NextSteps,
	}
	for _, a := range r.Approvals {
		out.Approvals = append(out.Approvals, toApproval(a))
	}
	if out.NextSteps == nil {
		out.NextSteps = []string{}
	}
	if r.LatestScore != nil {
		rs := toRiskScore(*r.LatestScore)
		out.RiskScore = &rs
	}
	return out
}

type questionnaireResponse struct {
	ID                   string    `json:"id"`
	VendorID             string    `json:"vendor_id"`
	TotalQuestions       int       `json:"total_questions"`
	AnsweredQuestions    int       `json:"answered_questions"`
	CompletionPercentage float64   `json:"completion_percentage"`
	AutoFilled           bool      `json:"auto_filled"`
	CompletedAt          time.Time `json:"completed_at"`
}

type auditResponse struct {
	ID           string         `json:"id"`
	VendorID     *string        `json:"vendor_id"`
	Action       string         `json:"action"`
	Actor        string         `json:"actor"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

type intakeResponse struct {
	Document documentResponse `json:"document"`
	JobID    string           `json:"job_id,omitempty"`
	Skipped  bool             `json:"skipped"`
}

type processAcceptedResponse struct {
	DocumentID string `json:"document_id"`
	JobID      string `json:"job_id"`
}
