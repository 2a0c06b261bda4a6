package domain

// NewVendor is a vendor registration request.
type NewVendor struct {
	CompanyName  string `validate:"required,max=255"`
	ContactEmail string `validate:"required,email"`
	TaxID        string `validate:"omitempty,max=20"`
	Address      string
	ContactPhone string `validate:"omitempty,max=50"`
	Source       string
}

// StatusReport is a vendor together with what is still outstanding.
type StatusReport struct {
	Vendor      Vendor
	Documents   []Document
	Approvals   []ApprovalWorkflow
	HasESG      bool
	NextSteps   []string
	LatestScore *RiskScore
}

// QuestionnaireSubmission carries raw answers; completion is derived.
type QuestionnaireSubmission struct {
	Answers        map[string]any
	TotalQuestions int `validate:"gte=1"`
	AutoFilled     bool
}

// Decision is an approve/reject action by a reviewer.
type Decision struct {
	Approved bool
	Comments string
	Actor    string
}

// UploadNotification announces a new object in the document store. Either
// all identifiers are given or they are derived from Key.
type UploadNotification struct {
	Bucket       string `validate:"required"`
	Key          string `validate:"required"`
	VendorID     string
	DocumentID   string
	DocumentType string
}

// IntakeResult reports what an upload notification did.
type IntakeResult struct {
	Document Document
	JobID    string
	// Skipped is set when the document was already known.
	Skipped bool
}
