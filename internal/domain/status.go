package domain

import (
	"fmt"
	"strings"
)

type VendorStatus string

const (
	VendorSubmitted          VendorStatus = "submitted"
	VendorDocumentsPending   VendorStatus = "documents_pending"
	VendorUnderReview        VendorStatus = "under_review"
	VendorRiskAssessment     VendorStatus = "risk_assessment"
	VendorApproved           VendorStatus = "approved"
	VendorRejected           VendorStatus = "rejected"
	VendorOnboardingComplete VendorStatus = "onboarding_complete"
)

// pre-decision states in lifecycle order
var vendorChain = []VendorStatus{
	VendorSubmitted,
	VendorDocumentsPending,
	VendorUnderReview,
	VendorRiskAssessment,
}

var vendorProgress = map[VendorStatus]int{
	VendorSubmitted:          0,
	VendorDocumentsPending:   25,
	VendorUnderReview:        50,
	VendorRiskAssessment:     75,
	VendorApproved:           100,
	VendorRejected:           0,
	VendorOnboardingComplete: 100,
}

func ParseVendorStatus(s string) (VendorStatus, error) {
	st := VendorStatus(strings.TrimSpace(s))
	if _, ok := vendorProgress[st]; !ok {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown vendor status %q", s)}
	}
	return st, nil
}

// Progress is the onboarding_progress value that accompanies the status.
func (s VendorStatus) Progress() int { return vendorProgress[s] }

// Decided reports whether an approval decision has already been taken.
func (s VendorStatus) Decided() bool {
	return s == VendorApproved || s == VendorRejected || s == VendorOnboardingComplete
}

func chainRank(s VendorStatus) int {
	for i, c := range vendorChain {
		if c == s {
			return i
		}
	}
	return -1
}

// CanTransition reports whether from → to is a legal automated or operator
// transition. Approval decisions are covered by CanDecide.
func CanTransition(from, to VendorStatus) bool {
	if from == VendorApproved && to == VendorOnboardingComplete {
		return true
	}
	rf, rt := chainRank(from), chainRank(to)
	return rf >= 0 && rt > rf
}

// CanDecide reports whether an approve/reject decision may be applied.
func CanDecide(from VendorStatus) bool {
	return chainRank(from) >= 0
}

// TransitionVendor validates a non-decision transition.
func TransitionVendor(from, to VendorStatus) error {
	if to == VendorApproved || to == VendorRejected {
		return fmt.Errorf("%w: %s → %s requires an approval decision", ErrInvalidTransition, from, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: vendor %s → %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// DecideVendor validates an approval decision and returns the resulting status.
func DecideVendor(from VendorStatus, approved bool) (VendorStatus, error) {
	if !CanDecide(from) {
		return "", fmt.Errorf("%w: vendor already %s", ErrInvalidTransition, from)
	}
	if approved {
		return VendorApproved, nil
	}
	return VendorRejected, nil
}

type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentExtracted  DocumentStatus = "extracted"
	DocumentFailed     DocumentStatus = "failed"
	DocumentVerified   DocumentStatus = "verified"
)

var documentTransitions = map[DocumentStatus][]DocumentStatus{
	// processing → processing is a manual retry of a stuck document
	DocumentUploaded:   {DocumentProcessing},
	DocumentProcessing: {DocumentProcessing, DocumentExtracted, DocumentFailed},
	DocumentExtracted:  {DocumentProcessing, DocumentVerified},
	DocumentFailed:     {DocumentProcessing},
}

func TransitionDocument(from, to DocumentStatus) error {
	for _, next := range documentTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: document %s → %s", ErrInvalidTransition, from, to)
}

type DocumentType string

const (
	DocTaxForm        DocumentType = "w9"
	DocInsurance      DocumentType = "insurance"
	DocDiversityCert  DocumentType = "diversity_cert"
	DocContinuityPlan DocumentType = "bcp"
	DocAuditReport    DocumentType = "soc2"
	DocStandardsCert  DocumentType = "iso_cert"
	DocOther          DocumentType = "other"
)

var documentTypeAliases = map[string]DocumentType{
	"w9":                    DocTaxForm,
	"w-9":                   DocTaxForm,
	"insurance":             DocInsurance,
	"insurance_certificate": DocInsurance,
	"diversity_cert":        DocDiversityCert,
	"bcp":                   DocContinuityPlan,
	"soc2":                  DocAuditReport,
	"iso_cert":              DocStandardsCert,
	"other":                 DocOther,
}

var documentLabels = map[DocumentType]string{
	DocTaxForm:        "W-9 Tax Form",
	DocInsurance:      "Insurance Certificate",
	DocDiversityCert:  "Diversity Certification",
	DocContinuityPlan: "Business Continuity Plan",
	DocAuditReport:    "SOC 2 Report",
	DocStandardsCert:  "ISO Certification",
	DocOther:          "Other Document",
}

// RequiredDocuments are the types a vendor must upload before review.
var RequiredDocuments = []DocumentType{DocTaxForm, DocInsurance, DocDiversityCert, DocContinuityPlan}

func ParseDocumentType(s string) (DocumentType, error) {
	t, ok := documentTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", &ValidationError{Field: "document_type", Message: fmt.Sprintf("unknown document type %q", s)}
	}
	return t, nil
}

func (t DocumentType) Label() string { return documentLabels[t] }

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalRejected  ApprovalStatus = "rejected"
	ApprovalEscalated ApprovalStatus = "escalated"
)

// FinalApprovalStep is the workflow step recorded with each decision.
const FinalApprovalStep = "final_approval"
