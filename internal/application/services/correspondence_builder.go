package services

import (
	"context"
	"fmt"

	"github.com/jhonattanreales21/rutasalud/internal/domain/catalog"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
)

// CorrespondenceBuilder assembles correspondence tables from clinical cases
// and the service vocabulary.
type CorrespondenceBuilder struct {
	catalog  *catalog.Catalog
	resolver FallbackResolver
}

// NewCorrespondenceBuilder creates a new correspondence builder
func NewCorrespondenceBuilder(c *catalog.Catalog, resolver FallbackResolver) *CorrespondenceBuilder {
	return &CorrespondenceBuilder{catalog: c, resolver: resolver}
}

// Build resolves every case and indexes the entries by (urgency, specialty).
// Cases sharing a key collapse to the entry of the first case. Build either
// returns a complete table or an error.
func (b *CorrespondenceBuilder) Build(
	ctx context.Context,
	cases []entities.ClinicalCase,
	vocab *ServiceVocabulary,
	matcher SimilarityMatcher,
	params entities.TableParams,
	snapshot string,
) (*entities.CorrespondenceTable, error) {
	table := entities.NewCorrespondenceTable(params, matcher.Strategy(), snapshot)
	resolved := make(map[entities.CorrespondenceKey]struct{}, len(cases))

	for _, c := range cases {
		key := entities.CorrespondenceKey{Urgency: c.Urgency, Specialty: c.Specialty}
		special := b.catalog.IsSpecialCategory(c.Category)
		if _, done := resolved[key]; done && !special {
			continue
		}

		entry, err := b.ResolveCase(ctx, c, vocab, matcher, params)
		if err != nil {
			return nil, fmt.Errorf("resolve case %s/%s/%s: %w", c.Category, c.Symptom, c.Modifier, err)
		}
		table.Add(entry)
		resolved[key] = struct{}{}
	}

	return table, nil
}

// ResolveCase runs the matching ladder for one case: the category for
// special categories, then the specialty, both within the urgency band, and
// finally the fallback resolver when both came back empty.
func (b *CorrespondenceBuilder) ResolveCase(
	ctx context.Context,
	c entities.ClinicalCase,
	vocab *ServiceVocabulary,
	matcher SimilarityMatcher,
	params entities.TableParams,
) (entities.CorrespondenceEntry, error) {
	entry := entities.CorrespondenceEntry{
		Case:      c.Identity(),
		Urgency:   c.Urgency,
		Specialty: c.Specialty,
	}
	band := vocab.WithPrefixes(b.catalog.BandPrefixes(c.Urgency))
	direct := entities.MethodForStrategy(matcher.Strategy())

	if b.catalog.IsSpecialCategory(c.Category) {
		candidates, err := matcher.Match(ctx, c.Category, band, params.Threshold, params.TopK)
		if err != nil {
			return entry, err
		}
		if len(candidates) > 0 {
			entry.Candidates = candidates
			entry.Method = direct
			entry.MatchedOn = entities.MatchedOnCategory
			return entry, nil
		}
	}

	if c.Specialty != "" {
		candidates, err := matcher.Match(ctx, c.Specialty, band, params.Threshold, params.TopK)
		if err != nil {
			return entry, err
		}
		if len(candidates) > 0 {
			entry.Candidates = candidates
			entry.Method = direct
			entry.MatchedOn = entities.MatchedOnSpecialty
			return entry, nil
		}
	}

	res, err := b.resolver.Resolve(ctx, matcher, FallbackRequest{
		Query:     c.Specialty,
		Urgency:   c.Urgency,
		Band:      band,
		Threshold: params.Threshold,
		TopK:      params.TopK,
	})
	if err != nil {
		return entry, err
	}
	entry.Candidates = res.Candidates
	entry.Method = res.Method
	if res.Method != entities.MatchMethodNone {
		entry.MatchedOn = entities.MatchedOnSpecialty
	}
	return entry, nil
}
