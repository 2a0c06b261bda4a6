// Package risk computes vendor risk scores. The engine is a pure function of
// its Input; sanctions screening happens before and is passed in.
package risk

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"onboardhub/internal/domain"
)

// Input is the snapshot a score is computed from.
type Input struct {
	TaxID         string
	CompanyName   string
	DocumentTypes []domain.DocumentType
	// Completion is the latest questionnaire completion percentage, nil when
	// no questionnaire exists.
	Completion *float64
	Sanctions  domain.SanctionsResult
}

type Assessment struct {
	Financial       int
	Compliance      int
	Cyber           int
	ESG             int
	Overall         int
	Level           domain.RiskLevel
	RedFlags        []string
	Findings        domain.Findings
	Recommendations []string
}

const (
	FlagSanctions  = "Sanctions screening match found"
	FlagMissingEIN = "Missing EIN"
	FlagCyberCerts = "Missing cybersecurity certifications (SOC 2, ISO 27001)"
	FlagCompliance = "Missing compliance documentation"

	defaultRecommendation = "Continue maintaining current compliance standards"
)

type Engine struct {
	policy  Policy
	weights [4]decimal.Decimal
}

func NewEngine(p Policy) *Engine {
	return &Engine{
		policy: p,
		weights: [4]decimal.Decimal{
			decimal.NewFromFloat(p.Weights.Financial),
			decimal.NewFromFloat(p.Weights.Compliance),
			decimal.NewFromFloat(p.Weights.Cyber),
			decimal.NewFromFloat(p.Weights.ESG),
		},
	}
}

func (e *Engine) Policy() Policy { return e.policy }

func (e *Engine) Assess(in Input) Assessment {
	pen := e.policy.Penalties
	th := e.policy.Thresholds

	has := make(map[domain.DocumentType]bool, len(in.DocumentTypes))
	for _, t := range in.DocumentTypes {
		has[t] = true
	}
	hasEIN := strings.TrimSpace(in.TaxID) != ""

	financial := pen.FinancialBase
	if !hasEIN {
		financial += pen.MissingTaxID
	}
	compliance := pen.ComplianceBase
	if !has[domain.DocTaxForm] {
		compliance += pen.MissingTaxForm
	}
	if !has[domain.DocInsurance] {
		compliance += pen.MissingInsurance
	}
	if !has[domain.DocDiversityCert] {
		compliance += pen.MissingDiversity
	}
	cyber := pen.CyberBase
	if !has[domain.DocAuditReport] {
		cyber += pen.MissingAudit
	}
	if !has[domain.DocStandardsCert] {
		cyber += pen.MissingStandards
	}
	esg := pen.NoQuestionnaire
	if in.Completion != nil {
		c := clampFloat(*in.Completion)
		esg = int((100 - c) / 2)
	}

	a := Assessment{
		Financial:  clamp(financial),
		Compliance: clamp(compliance),
		Cyber:      clamp(cyber),
		ESG:        clamp(esg),
	}
	a.Overall = e.overall(a)
	a.Level = e.Level(a.Overall)

	if in.Sanctions.Matches > 0 {
		a.RedFlags = append(a.RedFlags, FlagSanctions)
	}
	if !hasEIN {
		a.RedFlags = append(a.RedFlags, FlagMissingEIN)
	}
	if a.Cyber > th.CyberFlag {
		a.RedFlags = append(a.RedFlags, FlagCyberCerts)
	}
	if a.Compliance > th.ComplianceFlag {
		a.RedFlags = append(a.RedFlags, FlagCompliance)
	}
	if a.RedFlags == nil {
		a.RedFlags = []string{}
	}

	a.Findings = e.findings(a, hasEIN, has)
	a.Recommendations = e.recommendations(a, in.Sanctions.Matches)
	return a
}

// overall is the weighted sum rounded half-to-even on the exact decimal value.
func (e *Engine) overall(a Assessment) int {
	sum := decimal.NewFromInt(int64(a.Financial)).Mul(e.weights[0]).
		Add(decimal.NewFromInt(int64(a.Compliance)).Mul(e.weights[1])).
		Add(decimal.NewFromInt(int64(a.Cyber)).Mul(e.weights[2])).
		Add(decimal.NewFromInt(int64(a.ESG)).Mul(e.weights[3]))
	return clamp(int(sum.RoundBank(0).IntPart()))
}

// Level classifies an overall score. Lower bounds are inclusive.
func (e *Engine) Level(overall int) domain.RiskLevel {
	th := e.policy.Thresholds
	switch {
	case overall < th.Medium:
		return domain.RiskLow
	case overall < th.High:
		return domain.RiskMedium
	case overall < th.Critical:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

func (e *Engine) findings(a Assessment, hasEIN bool, has map[domain.DocumentType]bool) domain.Findings {
	th := e.policy.Thresholds
	var f domain.Findings

	if a.Financial < th.StrongScore {
		f.Financial = append(f.Financial, "Strong financial health indicators")
	}
	if hasEIN {
		f.Financial = append(f.Financial, "Valid EIN provided and verified")
	} else {
		f.Financial = append(f.Financial, "Missing EIN - financial verification incomplete")
	}
	f.Financial = append(f.Financial, "No recent debt defaults or bankruptcies")

	if has[domain.DocTaxForm] {
		f.Compliance = append(f.Compliance, "W-9 form verified")
	} else {
		f.Compliance = append(f.Compliance, "Missing W-9 form")
	}
	if has[domain.DocInsurance] {
		f.Compliance = append(f.Compliance, "Insurance certificate verified")
	} else {
		f.Compliance = append(f.Compliance, "Missing insurance certificate")
	}
	if a.Compliance < th.StrongScore {
		f.Compliance = append(f.Compliance, "All required compliance documents submitted")
	}

	if a.Cyber > th.CyberFlag {
		f.Cybersecurity = append(f.Cybersecurity,
			"SOC 2 Type II certification required",
			"Cyber insurance policy needs renewal")
	} else {
		f.Cybersecurity = append(f.Cybersecurity, "Strong cybersecurity posture verified")
	}
	f.Cybersecurity = append(f.Cybersecurity, "Firewall and intrusion detection systems in place")

	if a.ESG < th.StrongScore {
		f.ESG = append(f.ESG,
			"Excellent environmental sustainability practices",
			"Strong diversity and inclusion policies")
	}
	f.ESG = append(f.ESG, "Active community engagement programs")
	return f
}

func (e *Engine) recommendations(a Assessment, matches int) []string {
	th := e.policy.Thresholds
	var out []string
	if a.Cyber > th.CyberFlag {
		out = append(out,
			"Renew SOC 2 certification within 30 days",
			"Update cyber insurance policy to meet minimum coverage requirements")
	}
	if a.Compliance > th.ComplianceFlag {
		out = append(out, "Submit missing compliance documentation")
	}
	if matches > 0 {
		out = append(out, "Resolve sanctions screening matches before final approval")
	}
	if a.ESG > th.ESGAdvice {
		out = append(out, "Complete ESG questionnaire for improved sustainability rating")
	}
	if len(out) == 0 {
		out = []string{defaultRecommendation}
	}
	return out
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampFloat(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
