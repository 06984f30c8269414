package evaluation

import "fmt"

// GuardrailConfig holds the minimum quality a correspondence table must reach.
// Zero values disable a check.
type GuardrailConfig struct {
	MinRecall  float64 `json:"min_recall" yaml:"min_recall"`
	MinMRR     float64 `json:"min_mrr" yaml:"min_mrr"`
	MinHitRate float64 `json:"min_hit_rate" yaml:"min_hit_rate"`
	// MaxNoMatch caps the cases left with no service; negative disables it.
	MaxNoMatch int `json:"max_no_match" yaml:"max_no_match"`
}

// DefaultGuardrails are the thresholds used when none are configured.
func DefaultGuardrails() GuardrailConfig {
	return GuardrailConfig{MinRecall: 0.6, MinMRR: 0.5, MinHitRate: 0.9, MaxNoMatch: -1}
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	return &Guardrails{config: config}
}

// Check returns one message per breached threshold.
func (g *Guardrails) Check(s *EvalSummary) []string {
	var violations []string
	if g.config.MinRecall > 0 && s.AvgRecall < g.config.MinRecall {
		violations = append(violations, fmt.Sprintf("recall@%d %.3f below %.3f", s.K, s.AvgRecall, g.config.MinRecall))
	}
	if g.config.MinMRR > 0 && s.AvgMRR < g.config.MinMRR {
		violations = append(violations, fmt.Sprintf("mrr@%d %.3f below %.3f", s.K, s.AvgMRR, g.config.MinMRR))
	}
	if g.config.MinHitRate > 0 && s.HitRate() < g.config.MinHitRate {
		violations = append(violations, fmt.Sprintf("hit rate %.3f below %.3f", s.HitRate(), g.config.MinHitRate))
	}
	if g.config.MaxNoMatch >= 0 && s.NoMatchCases > g.config.MaxNoMatch {
		violations = append(violations, fmt.Sprintf("%d cases without a service, at most %d allowed", s.NoMatchCases, g.config.MaxNoMatch))
	}
	if s.Errors > 0 {
		violations = append(violations, fmt.Sprintf("%d cases failed to resolve", s.Errors))
	}
	return violations
}

// Passed reports whether s breaches no threshold.
func (g *Guardrails) Passed(s *EvalSummary) bool {
	return len(g.Check(s)) == 0
}
