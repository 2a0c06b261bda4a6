package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"onboardhub/internal/domain"
)

// RiskScoreRepository

func (r *repos) InsertRiskScore(ctx context.Context, s domain.RiskScore) error {
	flags := s.RedFlags
	if flags == nil {
		flags = []string{}
	}
	recs := s.Recommendations
	if recs == nil {
		recs = []string{}
	}
	_, err := r.q.Exec(ctx, `
        INSERT INTO risk_scores (id, vendor_id, overall_score, financial_score, compliance_score, cyber_score,
                                 esg_score, sanctions_result, red_flags, findings, recommendations, risk_level,
                                 calculated_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, s.ID, s.VendorID, s.Overall, s.Financial, s.Compliance, s.Cyber, s.ESG,
		s.Sanctions, flags, s.Findings, recs, string(s.Level), s.CalculatedAt, s.ExpiresAt)
	return mapErr(err)
}

// LatestRiskScore selects by calculated_at on every call; there is no cached
// current-score pointer.
func (r *repos) LatestRiskScore(ctx context.Context, vendorID string) (bool, domain.RiskScore, error) {
	var s domain.RiskScore
	var level string
	err := r.q.QueryRow(ctx, `
        SELECT id::text, vendor_id::text, overall_score, financial_score, compliance_score, cyber_score, esg_score,
               sanctions_result, red_flags, findings, recommendations, risk_level, calculated_at,
               COALESCE(expires_at, calculated_at + interval '90 days')
        FROM risk_scores
        WHERE vendor_id = $1
        ORDER BY calculated_at DESC
        LIMIT 1
    `, vendorID).Scan(&s.ID, &s.VendorID, &s.Overall, &s.Financial, &s.Compliance, &s.Cyber, &s.ESG,
		&s.Sanctions, &s.RedFlags, &s.Findings, &s.Recommendations, &level, &s.CalculatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, s, nil
	}
	if err != nil {
		if mapped := mapErr(err); errors.Is(mapped, domain.ErrNotFound) {
			return false, s, nil
		}
		return false, s, err
	}
	s.Level = domain.RiskLevel(level)
	return true, s, nil
}

// QuestionnaireRepository

func (r *repos) InsertQuestionnaire(ctx context.Context, q domain.Questionnaire) error {
	answers := q.Answers
	if answers == nil {
		answers = map[string]any{}
	}
	_, err := r.q.Exec(ctx, `
        INSERT INTO esg_questionnaires (id, vendor_id, questions, auto_filled, total_questions,
                                        answered_questions, completion_percentage, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, q.ID, q.VendorID, answers, q.AutoFilled, q.TotalQuestions, q.AnsweredQuestions,
		q.CompletionPercentage, q.CompletedAt)
	return mapErr(err)
}

func (r *repos) LatestQuestionnaire(ctx context.Context, vendorID string) (bool, domain.Questionnaire, error) {
	var q domain.Questionnaire
	err := r.q.QueryRow(ctx, `
        SELECT id::text, vendor_id::text, questions, auto_filled, total_questions, answered_questions,
               completion_percentage::float8, completed_at
        FROM esg_questionnaires
        WHERE vendor_id = $1
        ORDER BY completed_at DESC
        LIMIT 1
    `, vendorID).Scan(&q.ID, &q.VendorID, &q.Answers, &q.AutoFilled, &q.TotalQuestions,
		&q.AnsweredQuestions, &q.CompletionPercentage, &q.CompletedAt)
	if err != nil {
		if errors.Is(mapErr(err), domain.ErrNotFound) {
			return false, q, nil
		}
		return false, q, err
	}
	return true, q, nil
}

// ApprovalRepository

func (r *repos) InsertApproval(ctx context.Context, w domain.ApprovalWorkflow) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO approval_workflows (id, vendor_id, current_step, status, final_decision,
                                        decision_comments, decision_by, decision_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, w.ID, w.VendorID, w.CurrentStep, string(w.Status), w.FinalDecision, w.Comments, w.DecisionBy,
		w.DecisionAt, w.CreatedAt)
	return mapErr(err)
}

func (r *repos) ListApprovals(ctx context.Context, vendorID string) ([]domain.ApprovalWorkflow, error) {
	rows, err := r.q.Query(ctx, `
        SELECT id::text, vendor_id::text, current_step, status, COALESCE(final_decision, false),
               COALESCE(decision_comments, ''), COALESCE(decision_by, ''), COALESCE(decision_at, created_at), created_at
        FROM approval_workflows
        WHERE vendor_id = $1
        ORDER BY created_at
    `, vendorID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := []domain.ApprovalWorkflow{}
	for rows.Next() {
		var w domain.ApprovalWorkflow
		var status string
		if err := rows.Scan(&w.ID, &w.VendorID, &w.CurrentStep, &status, &w.FinalDecision,
			&w.Comments, &w.DecisionBy, &w.DecisionAt, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.Status = domain.ApprovalStatus(status)
		out = append(out, w)
	}
	return out, rows.Err()
}
