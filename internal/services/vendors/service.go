package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ttacon/libphonenumber"
	"golang.org/x/net/publicsuffix"

	"onboardhub/internal/domain"
	"onboardhub/internal/ports"
)

const (
	defaultSource = "api"
	phoneRegion   = "US"
)

type Service struct {
	store ports.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func New(store ports.Store, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, in domain.NewVendor) (domain.Vendor, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.TaxID = strings.TrimSpace(in.TaxID)
	if err := domain.Validate(in); err != nil {
		return domain.Vendor{}, err
	}
	if in.Source == "" {
		in.Source = defaultSource
	}

	now := s.now().UTC()
	id := uuid.NewString()
	short := strings.ToUpper(id[:8])
	v := domain.Vendor{
		ID:           id,
		CompanyName:  in.CompanyName,
		TaxID:        in.TaxID,
		Address:      in.Address,
		ContactEmail: in.ContactEmail,
		ContactPhone: normalizePhone(in.ContactPhone),
		EmailDomain:  emailDomain(in.ContactEmail),
		Status:       domain.VendorSubmitted,
		Integrations: domain.Integrations{
			KY3PAssessmentID: "KY3P-" + short,
			SLPSupplierID:    "SLP-" + short,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.OnboardingProgress = v.Status.Progress()

	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		if err := tx.CreateVendor(ctx, v); err != nil {
			return fmt.Errorf("insert vendor: %w", err)
		}
		return tx.AppendAudit(ctx, s.audit(v.ID, domain.ActionVendorCreated, v.ContactEmail, map[string]any{
			"source":       in.Source,
			"company_name": v.CompanyName,
			"email_domain": v.EmailDomain,
		}))
	})
	if err != nil {
		return domain.Vendor{}, err
	}
	s.log.WithFields(logrus.Fields{"vendor_id": v.ID, "email_domain": v.EmailDomain}).Info("vendor created")
	return v, nil
}

// emailDomain returns the registrable domain (eTLD+1) of an address.
func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return ""
	}
	host := strings.ToLower(email[at+1:])
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}

// normalizePhone formats a valid number as E.164. Numbers without a country
// code are read as US; anything unparseable is kept as entered.
func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, phoneRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Vendor, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Vendor{}, domain.Invalid("vendor_id", "is required")
	}
	return s.store.GetVendor(ctx, id)
}

// Status reports the vendor, its documents and outstanding steps.
func (s *Service) Status(ctx context.Context, id string) (domain.StatusReport, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return domain.StatusReport{}, err
	}
	docs, err := s.store.ListDocumentsByVendor(ctx, id)
	if err != nil {
		return domain.StatusReport{}, err
	}
	approvals, err := s.store.ListApprovals(ctx, id)
	if err != nil {
		return domain.StatusReport{}, err
	}
	hasESG, _, err := s.store.LatestQuestionnaire(ctx, id)
	if err != nil {
		return domain.StatusReport{}, err
	}
	rep := domain.StatusReport{Vendor: v, Documents: docs, Approvals: approvals, HasESG: hasESG}
	if ok, score, err := s.store.LatestRiskScore(ctx, id); err != nil {
		return domain.StatusReport{}, err
	} else if ok {
		rep.LatestScore = &score
	}
	rep.NextSteps = NextSteps(docs, hasESG)
	return rep, nil
}

// NextSteps lists missing required documents in their fixed order, then the
// questionnaire when none exists.
func NextSteps(docs []domain.Document, hasESG bool) []string {
	have := make(map[domain.DocumentType]bool, len(docs))
	for _, d := range docs {
		have[d.Type] = true
	}
	steps := []string{}
	for _, t := range domain.RequiredDocuments {
		if !have[t] {
			steps = append(steps, "Upload "+t.Label())
		}
	}
	if !hasESG {
		steps = append(steps, "Complete ESG Questionnaire")
	}
	return steps
}

func (s *Service) SubmitQuestionnaire(ctx context.Context, vendorID, actor string, in domain.QuestionnaireSubmission) (domain.Questionnaire, error) {
	if err := domain.Validate(in); err != nil {
		return domain.Questionnaire{}, err
	}
	answered := 0
	for _, a := range in.Answers {
		if answeredValue(a) {
			answered++
		}
	}
	if answered > in.TotalQuestions {
		return domain.Questionnaire{}, domain.Invalid("answers", "more answers than total_questions")
	}
	pct, _ := decimal.NewFromInt(int64(answered)).
		Div(decimal.NewFromInt(int64(in.TotalQuestions))).
		Mul(decimal.NewFromInt(100)).
		Round(2).Float64()

	q := domain.Questionnaire{
		ID:                   uuid.NewString(),
		VendorID:             vendorID,
		Answers:              in.Answers,
		TotalQuestions:       in.TotalQuestions,
		AnsweredQuestions:    answered,
		CompletionPercentage: pct,
		AutoFilled:           in.AutoFilled,
		CompletedAt:          s.now().UTC(),
	}
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		if _, err := tx.GetVendor(ctx, vendorID); err != nil {
			return err
		}
		if err := tx.InsertQuestionnaire(ctx, q); err != nil {
			return fmt.Errorf("insert questionnaire: %w", err)
		}
		return tx.AppendAudit(ctx, s.audit(vendorID, domain.ActionQuestionnaireSubmitted, actorOr(actor), map[string]any{
			"answered_questions":    answered,
			"total_questions":       in.TotalQuestions,
			"completion_percentage": pct,
		}))
	})
	if err != nil {
		return domain.Questionnaire{}, err
	}
	return q, nil
}

func answeredValue(v any) bool {
	switch a := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(a) != ""
	case []any:
		return len(a) > 0
	case map[string]any:
		return len(a) > 0
	default:
		return true
	}
}

// Transition applies a non-decision status change.
func (s *Service) Transition(ctx context.Context, vendorID string, to domain.VendorStatus, actor string) (domain.Vendor, error) {
	var out domain.Vendor
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		v, err := tx.GetVendor(ctx, vendorID)
		if err != nil {
			return err
		}
		if err := domain.TransitionVendor(v.Status, to); err != nil {
			return err
		}
		if err := tx.UpdateVendorStatus(ctx, vendorID, to, to.Progress()); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, s.audit(vendorID, domain.ActionVendorStatusChanged, actorOr(actor), map[string]any{
			"from": string(v.Status),
			"to":   string(to),
		})); err != nil {
			return err
		}
		out, err = tx.GetVendor(ctx, vendorID)
		return err
	})
	return out, err
}

// Decide records an approval decision. The status change, workflow row and
// audit entry commit together or not at all.
func (s *Service) Decide(ctx context.Context, vendorID string, d domain.Decision) (domain.ApprovalWorkflow, error) {
	if strings.TrimSpace(vendorID) == "" {
		return domain.ApprovalWorkflow{}, domain.Invalid("vendor_id", "is required")
	}
	actor := actorOr(d.Actor)
	now := s.now().UTC()
	var w domain.ApprovalWorkflow
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		v, err := tx.GetVendor(ctx, vendorID)
		if err != nil {
			return err
		}
		next, err := domain.DecideVendor(v.Status, d.Approved)
		if err != nil {
			return err
		}
		if err := tx.UpdateVendorStatus(ctx, vendorID, next, next.Progress()); err != nil {
			return fmt.Errorf("update vendor status: %w", err)
		}
		w = domain.ApprovalWorkflow{
			ID:            uuid.NewString(),
			VendorID:      vendorID,
			CurrentStep:   domain.FinalApprovalStep,
			Status:        domain.ApprovalStatus(next),
			FinalDecision: d.Approved,
			Comments:      d.Comments,
			DecisionBy:    actor,
			DecisionAt:    now,
			CreatedAt:     now,
		}
		if err := tx.InsertApproval(ctx, w); err != nil {
			return fmt.Errorf("insert approval: %w", err)
		}
		return tx.AppendAudit(ctx, s.audit(vendorID, domain.DecisionAction(d.Approved), actor, map[string]any{
			"comments":     d.Comments,
			"company_name": v.CompanyName,
			"from":         string(v.Status),
		}))
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidTransition) {
			s.log.WithError(err).WithField("vendor_id", vendorID).Error("approval decision failed")
		}
		return domain.ApprovalWorkflow{}, err
	}
	s.log.WithFields(logrus.Fields{"vendor_id": vendorID, "status": w.Status, "actor": actor}).Info("vendor decision recorded")
	return w, nil
}

func (s *Service) Audit(ctx context.Context, vendorID string) ([]domain.AuditLogEntry, error) {
	if _, err := s.Get(ctx, vendorID); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, vendorID)
}

func (s *Service) audit(vendorID, action, actor string, meta map[string]any) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:        uuid.NewString(),
		VendorID:  &vendorID,
		Action:    action,
		Actor:     actor,
		Metadata:  meta,
		Success:   true,
		Timestamp: s.now().UTC(),
	}
}

func actorOr(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return domain.SystemActor
	}
	return actor
}
