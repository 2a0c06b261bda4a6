package risk

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ReviewInterval is how long a score is considered current.
const ReviewInterval = 90 * 24 * time.Hour

// Weights are the per-dimension multipliers of the overall score.
type Weights struct {
	Financial  float64 `yaml:"financial"`
	Compliance float64 `yaml:"compliance"`
	Cyber      float64 `yaml:"cyber"`
	ESG        float64 `yaml:"esg"`
}

// Thresholds holds the level boundaries (lower bound inclusive) and the
// cut-offs that gate red flags, findings and recommendations.
type Thresholds struct {
	Medium   int `yaml:"medium"`
	High     int `yaml:"high"`
	Critical int `yaml:"critical"`

	CyberFlag      int `yaml:"cyber_flag"`
	ComplianceFlag int `yaml:"compliance_flag"`
	ESGAdvice      int `yaml:"esg_advice"`
	StrongScore    int `yaml:"strong_score"`
}

type Penalties struct {
	FinancialBase    int `yaml:"financial_base"`
	MissingTaxID     int `yaml:"missing_tax_id"`
	ComplianceBase   int `yaml:"compliance_base"`
	MissingTaxForm   int `yaml:"missing_tax_form"`
	MissingInsurance int `yaml:"missing_insurance"`
	MissingDiversity int `yaml:"missing_diversity"`
	CyberBase        int `yaml:"cyber_base"`
	MissingAudit     int `yaml:"missing_audit_report"`
	MissingStandards int `yaml:"missing_standards_cert"`
	NoQuestionnaire  int `yaml:"no_questionnaire"`
}

// Policy is the full set of scoring constants.
type Policy struct {
	Weights    Weights    `yaml:"weights"`
	Thresholds Thresholds `yaml:"thresholds"`
	Penalties  Penalties  `yaml:"penalties"`
}

// DefaultPolicy returns the production scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{Financial: 0.25, Compliance: 0.35, Cyber: 0.25, ESG: 0.15},
		Thresholds: Thresholds{
			Medium: 30, High: 60, Critical: 80,
			CyberFlag: 60, ComplianceFlag: 50, ESGAdvice: 50, StrongScore: 30,
		},
		Penalties: Penalties{
			FinancialBase: 30, MissingTaxID: 20,
			ComplianceBase: 20, MissingTaxForm: 25, MissingInsurance: 20, MissingDiversity: 10,
			CyberBase: 25, MissingAudit: 40, MissingStandards: 20,
			NoQuestionnaire: 50,
		},
	}
}

// LoadPolicy reads a YAML policy file. Keys absent from the file keep their
// default values.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read risk policy: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse risk policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks the weights sum to 1 and the level boundaries ascend.
func (p Policy) Validate() error {
	w := p.Weights
	sum := decimal.NewFromFloat(w.Financial).
		Add(decimal.NewFromFloat(w.Compliance)).
		Add(decimal.NewFromFloat(w.Cyber)).
		Add(decimal.NewFromFloat(w.ESG))
	if !sum.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("risk policy: weights sum to %s, want 1", sum)
	}
	t := p.Thresholds
	if !(0 < t.Medium && t.Medium < t.High && t.High < t.Critical && t.Critical <= 100) {
		return fmt.Errorf("risk policy: level thresholds %d/%d/%d not ascending", t.Medium, t.High, t.Critical)
	}
	return nil
}
