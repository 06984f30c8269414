package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhonattanreales21/rutasalud/internal/domain/catalog"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
)

var fallbackVocabulary = NewServiceVocabularyFromTerms([]string{
	"urgencias_medico_general",
	"urgencias_ortopedista",
	"urgencias_oftalmologia",
	"urgencia_cirugia_plastica",
	"cirugia_oftalmologia",
	"cirugia_urologia",
	"consulta_medicina_general",
	"consulta_ortopedista",
	"consulta_oftalmologia",
	"consulta_urologia",
})

func bandRequest(c *catalog.Catalog, level entities.TriageLevel, query string) FallbackRequest {
	return FallbackRequest{
		Query:     query,
		Urgency:   level,
		Band:      fallbackVocabulary.WithPrefixes(c.BandPrefixes(level)),
		Threshold: 0.7,
		TopK:      3,
	}
}

func TestUrgencyFallbackResolver_PrefixStage(t *testing.T) {
	c := catalog.Default()
	r := NewUrgencyFallbackResolver(c)

	res, err := r.Resolve(context.Background(), NewFuzzyMatcher(), bandRequest(c, entities.TriageT1, "oftalmologia"))
	require.NoError(t, err)

	assert.Equal(t, entities.MatchMethodFallbackPrefix, res.Method)
	assert.Equal(t, []string{"cirugia_oftalmologia", "urgencias_oftalmologia"}, serviceNames(res.Candidates))
	assert.Equal(t, 1.0, res.Candidates[0].Score)
}

func TestUrgencyFallbackResolver_BandCorrectness(t *testing.T) {
	c := catalog.Default()
	r := NewUrgencyFallbackResolver(c)
	queries := []string{"ortopedia", "oftalmologia", "urologia", "medicina_general", "cardiologia", ""}

	for _, q := range queries {
		res, err := r.Resolve(context.Background(), NewFuzzyMatcher(), bandRequest(c, entities.TriageT1, q))
		require.NoError(t, err)
		for _, cand := range res.Candidates {
			ok := strings.HasPrefix(cand.Service, "urgencias_") ||
				strings.HasPrefix(cand.Service, "urgencia_") ||
				strings.HasPrefix(cand.Service, "cirugia_")
			assert.True(t, ok, "T1 %q returned %s", q, cand.Service)
		}

		res, err = r.Resolve(context.Background(), NewFuzzyMatcher(), bandRequest(c, entities.TriageT5, q))
		require.NoError(t, err)
		for _, cand := range res.Candidates {
			assert.True(t, strings.HasPrefix(cand.Service, "consulta_"), "T5 %q returned %s", q, cand.Service)
		}
	}
}

func TestUrgencyFallbackResolver_GenericStage(t *testing.T) {
	c := catalog.Default()
	r := NewUrgencyFallbackResolver(c)

	res, err := r.Resolve(context.Background(), NewFuzzyMatcher(), bandRequest(c, entities.TriageT2, "cardiologia"))
	require.NoError(t, err)
	assert.Equal(t, entities.MatchMethodFallbackGeneric, res.Method)
	assert.Equal(t, []entities.ServiceCandidate{{Service: "urgencias_medico_general", Score: 1}}, res.Candidates)

	res, err = r.Resolve(context.Background(), NewFuzzyMatcher(), bandRequest(c, entities.TriageT4, ""))
	require.NoError(t, err)
	assert.Equal(t, entities.MatchMethodFallbackGeneric, res.Method)
	assert.Equal(t, []string{"consulta_medicina_general"}, serviceNames(res.Candidates))
}

func TestUrgencyFallbackResolver_None(t *testing.T) {
	c := catalog.Default()
	r := NewUrgencyFallbackResolver(c)

	req := FallbackRequest{
		Query:     "cardiologia",
		Urgency:   entities.TriageT4,
		Band:      []string{"consulta_urologia"},
		Threshold: 0.7,
		TopK:      3,
	}
	res, err := r.Resolve(context.Background(), NewFuzzyMatcher(), req)
	require.NoError(t, err)
	assert.Equal(t, entities.MatchMethodNone, res.Method)
	assert.NotNil(t, res.Candidates)
	assert.Empty(t, res.Candidates)
}

func serviceNames(c []entities.ServiceCandidate) []string {
	out := make([]string, len(c))
	for i, s := range c {
		out[i] = s.Service
	}
	return out
}
