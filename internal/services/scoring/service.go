package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"onboardhub/internal/domain"
	"onboardhub/internal/ports"
	"onboardhub/internal/risk"
)

type Service struct {
	store     ports.Store
	sanctions ports.SanctionsScreener
	engine    *risk.Engine
	log       logrus.FieldLogger
	now       func() time.Time
}

func New(store ports.Store, sanctions ports.SanctionsScreener, engine *risk.Engine, log logrus.FieldLogger) *Service {
	return &Service{store: store, sanctions: sanctions, engine: engine, log: log, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Assess scores a vendor from its current documents and questionnaire and
// stores the result with its audit entry in one transaction. A vendor in an
// earlier pre-decision state is moved to risk_assessment.
func (s *Service) Assess(ctx context.Context, vendorID, actor string) (domain.RiskScore, error) {
	if strings.TrimSpace(vendorID) == "" {
		return domain.RiskScore{}, domain.Invalid("vendor_id", "is required")
	}
	if actor == "" {
		actor = domain.SystemActor
	}
	v, err := s.store.GetVendor(ctx, vendorID)
	if err != nil {
		return domain.RiskScore{}, err
	}
	docs, err := s.store.ListDocumentsByVendor(ctx, vendorID)
	if err != nil {
		return domain.RiskScore{}, fmt.Errorf("list documents: %w", err)
	}
	types := make([]domain.DocumentType, 0, len(docs))
	for _, d := range docs {
		types = append(types, d.Type)
	}
	in := risk.Input{TaxID: v.TaxID, CompanyName: v.CompanyName, DocumentTypes: types}
	hasQ, q, err := s.store.LatestQuestionnaire(ctx, vendorID)
	if err != nil {
		return domain.RiskScore{}, fmt.Errorf("latest questionnaire: %w", err)
	}
	if hasQ {
		in.Completion = &q.CompletionPercentage
	}
	in.Sanctions, err = s.sanctions.Screen(ctx, v.CompanyName, v.TaxID)
	if err != nil {
		return domain.RiskScore{}, fmt.Errorf("sanctions screening: %w", err)
	}

	a := s.engine.Assess(in)
	now := s.now().UTC()
	score := domain.RiskScore{
		ID:              uuid.NewString(),
		VendorID:        vendorID,
		Financial:       a.Financial,
		Compliance:      a.Compliance,
		Cyber:           a.Cyber,
		ESG:             a.ESG,
		Overall:         a.Overall,
		Level:           a.Level,
		Sanctions:       in.Sanctions,
		RedFlags:        a.RedFlags,
		Findings:        a.Findings,
		Recommendations: a.Recommendations,
		CalculatedAt:    now,
		ExpiresAt:       now.Add(risk.ReviewInterval),
	}

	err = s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		cur, err := tx.GetVendor(ctx, vendorID)
		if err != nil {
			return err
		}
		if err := tx.InsertRiskScore(ctx, score); err != nil {
			return fmt.Errorf("insert risk score: %w", err)
		}
		if domain.CanTransition(cur.Status, domain.VendorRiskAssessment) {
			next := domain.VendorRiskAssessment
			if err := tx.UpdateVendorStatus(ctx, vendorID, next, next.Progress()); err != nil {
				return err
			}
		}
		return tx.AppendAudit(ctx, domain.AuditLogEntry{
			ID:       uuid.NewString(),
			VendorID: &vendorID,
			Action:   domain.ActionRiskAssessmentCompleted,
			Actor:    actor,
			Metadata: map[string]any{
				"risk_score_id": score.ID,
				"overall_score": score.Overall,
				"risk_level":    string(score.Level),
				"red_flags":     len(score.RedFlags),
			},
			Success:   true,
			Timestamp: now,
		})
	})
	if err != nil {
		return domain.RiskScore{}, err
	}
	s.log.WithFields(logrus.Fields{
		"vendor_id":  vendorID,
		"overall":    score.Overall,
		"risk_level": score.Level,
	}).Info("risk assessment completed")
	return score, nil
}

// Latest returns the most recently calculated score.
func (s *Service) Latest(ctx context.Context, vendorID string) (domain.RiskScore, error) {
	if _, err := s.store.GetVendor(ctx, vendorID); err != nil {
		return domain.RiskScore{}, err
	}
	exists, score, err := s.store.LatestRiskScore(ctx, vendorID)
	if err != nil {
		return domain.RiskScore{}, err
	}
	if !exists {
		return domain.RiskScore{}, fmt.Errorf("risk score for vendor %s: %w", vendorID, domain.ErrNotFound)
	}
	return score, nil
}
