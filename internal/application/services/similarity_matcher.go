package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
)

// SimilarityMatcher ranks vocabulary terms against a query. Implementations
// return candidates scoring at least threshold, sorted by descending score
// (ties by ascending name) and truncated to topK. No candidate is a normal
// empty result, never an error.
type SimilarityMatcher interface {
	Match(ctx context.Context, query string, vocabulary []string, threshold float64, topK int) ([]entities.ServiceCandidate, error)
	Strategy() entities.MatchStrategy
}

// EmbedderLoader returns the process-wide embedding model.
type EmbedderLoader func(ctx context.Context) (providers.Embedder, error)

// MatcherSelector turns a configured strategy into a matcher, degrading the
// semantic strategy to fuzzy when the embedding model cannot be loaded and
// degradation is allowed.
type MatcherSelector struct {
	loadEmbedder EmbedderLoader
	allowDegrade bool
	metrics      *observability.Metrics
	fuzzy        *FuzzyMatcher
}

// NewMatcherSelector creates a new matcher selector. loadEmbedder may be nil
// when no model is configured.
func NewMatcherSelector(loadEmbedder EmbedderLoader, allowDegrade bool, metrics *observability.Metrics) *MatcherSelector {
	return &MatcherSelector{
		loadEmbedder: loadEmbedder,
		allowDegrade: allowDegrade,
		metrics:      metrics,
		fuzzy:        NewFuzzyMatcher(),
	}
}

// Select returns the matcher for strategy. The returned matcher's Strategy
// reports what will actually run.
func (s *MatcherSelector) Select(ctx context.Context, strategy entities.MatchStrategy) (SimilarityMatcher, error) {
	switch strategy {
	case entities.MatchStrategyFuzzy:
		return s.fuzzy, nil
	case entities.MatchStrategySemantic:
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown match method %q", strategy))
	}

	var (
		embedder providers.Embedder
		err      error
	)
	if s.loadEmbedder == nil {
		err = fmt.Errorf("no embedding model configured")
	} else {
		embedder, err = s.loadEmbedder(ctx)
	}
	if err == nil {
		return NewSemanticMatcher(embedder), nil
	}

	if !s.allowDegrade {
		return nil, apperrors.NewResourceUnavailableError("embedding model unavailable", err)
	}

	observability.LoggerFromContext(ctx).Warn().
		Err(err).
		Msg("Embedding model unavailable, degrading semantic matcher to fuzzy")
	observability.RecordMatcherDegrade(ctx, s.metrics)
	return s.fuzzy, nil
}

// rankCandidates applies the shared threshold, ordering and top-k contract.
// Scores are rounded to three decimals after the threshold test.
func rankCandidates(scores map[string]float64, threshold float64, topK int) []entities.ServiceCandidate {
	out := make([]entities.ServiceCandidate, 0, len(scores))
	for term, score := range scores {
		if score < threshold {
			continue
		}
		out = append(out, entities.ServiceCandidate{Service: term, Score: roundScore(score)})
	}

	sortCandidates(out)

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func sortCandidates(c []entities.ServiceCandidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Score != c[j].Score {
			return c[i].Score > c[j].Score
		}
		return c[i].Service < c[j].Service
	})
}

func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
