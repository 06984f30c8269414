package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardrails_Pass(t *testing.T) {
	g := NewGuardrails(DefaultGuardrails())
	s := &EvalSummary{K: 3, TotalCases: 10, AvgRecall: 0.8, AvgMRR: 0.7, CasesWithHits: 10}

	assert.True(t, g.Passed(s))
	assert.Empty(t, g.Check(s))
}

func TestGuardrails_Breaches(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinRecall: 0.6, MinMRR: 0.5, MinHitRate: 0.9, MaxNoMatch: 0})
	s := &EvalSummary{K: 3, TotalCases: 10, AvgRecall: 0.4, AvgMRR: 0.3, CasesWithHits: 8, NoMatchCases: 2, Errors: 0}

	violations := g.Check(s)

	assert.Len(t, violations, 4)
	assert.Contains(t, violations[0], "recall@3")
	assert.False(t, g.Passed(s))
}

func TestGuardrails_ErrorsAlwaysFail(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MaxNoMatch: -1})
	s := &EvalSummary{TotalCases: 1, Errors: 1}

	assert.Equal(t, []string{"1 cases failed to resolve"}, g.Check(s))
}
