package services

import (
	"context"
	"fmt"
	"math"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

// SemanticMatcher scores terms by cosine similarity of sentence embeddings.
type SemanticMatcher struct {
	embedder providers.Embedder
}

// NewSemanticMatcher creates a new semantic matcher
func NewSemanticMatcher(embedder providers.Embedder) *SemanticMatcher {
	return &SemanticMatcher{embedder: embedder}
}

// Strategy implements SimilarityMatcher.
func (m *SemanticMatcher) Strategy() entities.MatchStrategy {
	return entities.MatchStrategySemantic
}

// Match implements SimilarityMatcher. Embedding failures are returned as
// errors; they are not a "no match".
func (m *SemanticMatcher) Match(ctx context.Context, query string, vocabulary []string, threshold float64, topK int) ([]entities.ServiceCandidate, error) {
	q := utils.EmbeddingText(query)
	if q == "" || len(vocabulary) == 0 {
		return []entities.ServiceCandidate{}, nil
	}

	qv, err := m.embedder.EmbedText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed query %q: %w", query, err)
	}

	texts := make([]string, len(vocabulary))
	for i, term := range vocabulary {
		texts[i] = utils.EmbeddingText(term)
	}
	vectors, err := m.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed vocabulary: %w", err)
	}

	scores := make(map[string]float64, len(vocabulary))
	for i, term := range vocabulary {
		scores[term] = cosineSimilarity(qv, vectors[i])
	}
	return rankCandidates(scores, threshold, topK), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
