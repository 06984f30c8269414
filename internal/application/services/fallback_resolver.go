package services

import (
	"context"
	"sort"
	"strings"

	"github.com/jhonattanreales21/rutasalud/internal/domain/catalog"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
)

// FallbackRequest describes a case the direct match could not resolve.
type FallbackRequest struct {
	Query   string
	Urgency entities.TriageLevel
	// Band is the vocabulary subset admitted by the urgency band.
	Band      []string
	Threshold float64
	TopK      int
}

// FallbackResult is the outcome of the ladder. Candidates is empty exactly
// when Method is MatchMethodNone.
type FallbackResult struct {
	Candidates []entities.ServiceCandidate
	Method     entities.MatchMethod
}

// FallbackResolver resolves cases the direct match left empty.
type FallbackResolver interface {
	Resolve(ctx context.Context, matcher SimilarityMatcher, req FallbackRequest) (FallbackResult, error)
}

// UrgencyFallbackResolver applies the urgency-band ladder: first the query
// against band services with their band prefix removed, then the generic
// catch-all services of the band, then nothing.
type UrgencyFallbackResolver struct {
	catalog *catalog.Catalog
}

// NewUrgencyFallbackResolver creates a new fallback resolver
func NewUrgencyFallbackResolver(c *catalog.Catalog) *UrgencyFallbackResolver {
	return &UrgencyFallbackResolver{catalog: c}
}

// Resolve implements FallbackResolver.
func (r *UrgencyFallbackResolver) Resolve(ctx context.Context, matcher SimilarityMatcher, req FallbackRequest) (FallbackResult, error) {
	if req.Query != "" {
		candidates, err := r.prefixStage(ctx, matcher, req)
		if err != nil {
			return FallbackResult{}, err
		}
		if len(candidates) > 0 {
			return FallbackResult{Candidates: candidates, Method: entities.MatchMethodFallbackPrefix}, nil
		}
	}

	if candidates := r.genericStage(req); len(candidates) > 0 {
		return FallbackResult{Candidates: candidates, Method: entities.MatchMethodFallbackGeneric}, nil
	}

	return FallbackResult{Candidates: []entities.ServiceCandidate{}, Method: entities.MatchMethodNone}, nil
}

// prefixStage compares the query with the specialty part of each band
// service, e.g. "ortopedista" for "urgencias_ortopedista". Services sharing a
// specialty part share its score.
func (r *UrgencyFallbackResolver) prefixStage(ctx context.Context, matcher SimilarityMatcher, req FallbackRequest) ([]entities.ServiceCandidate, error) {
	bySpecialty := make(map[string][]string)
	for _, service := range req.Band {
		rest := service
		if prefix, ok := r.catalog.BandPrefix(req.Urgency, service); ok {
			rest = strings.TrimPrefix(service, prefix)
		}
		if rest == "" {
			continue
		}
		bySpecialty[rest] = append(bySpecialty[rest], service)
	}
	if len(bySpecialty) == 0 {
		return nil, nil
	}

	parts := make([]string, 0, len(bySpecialty))
	for p := range bySpecialty {
		parts = append(parts, p)
	}
	sort.Strings(parts)

	matched, err := matcher.Match(ctx, req.Query, parts, req.Threshold, 0)
	if err != nil {
		return nil, err
	}

	out := make([]entities.ServiceCandidate, 0, len(matched))
	for _, m := range matched {
		for _, service := range bySpecialty[m.Service] {
			out = append(out, entities.ServiceCandidate{Service: service, Score: m.Score})
		}
	}
	sortCandidates(out)
	if req.TopK > 0 && len(out) > req.TopK {
		out = out[:req.TopK]
	}
	return out, nil
}

// genericStage returns band services ending in a generic suffix, in suffix
// order then by name, all scored 1.
func (r *UrgencyFallbackResolver) genericStage(req FallbackRequest) []entities.ServiceCandidate {
	seen := make(map[string]struct{})
	out := make([]entities.ServiceCandidate, 0)

	for _, suffix := range r.catalog.GenericServiceSuffixes {
		var hits []string
		for _, service := range req.Band {
			if _, dup := seen[service]; dup {
				continue
			}
			if strings.HasSuffix(service, suffix) {
				hits = append(hits, service)
			}
		}
		sort.Strings(hits)
		for _, h := range hits {
			seen[h] = struct{}{}
			out = append(out, entities.ServiceCandidate{Service: h, Score: 1})
		}
	}

	if req.TopK > 0 && len(out) > req.TopK {
		out = out[:req.TopK]
	}
	return out
}
