package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
)

// CorrespondenceCache holds built tables for the process lifetime.
type CorrespondenceCache struct {
	mu     sync.RWMutex
	tables map[string]*entities.CorrespondenceTable
}

// NewCorrespondenceCache creates an empty cache.
func NewCorrespondenceCache() *CorrespondenceCache {
	return &CorrespondenceCache{tables: make(map[string]*entities.CorrespondenceTable)}
}

// Get returns the table stored under key.
func (c *CorrespondenceCache) Get(key string) (*entities.CorrespondenceTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[key]
	return t, ok
}

// Put stores a table; a later Put for the same key replaces it.
func (c *CorrespondenceCache) Put(key string, table *entities.CorrespondenceTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[key] = table
}

// Len returns the number of cached tables.
func (c *CorrespondenceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// CorrespondenceCacheKey builds the cache key of a parameter triple on a
// data snapshot. The threshold is written in full so distinct thresholds
// never share a table.
func CorrespondenceCacheKey(params entities.TableParams, snapshot string) string {
	return "corr:" + string(params.Method) +
		":" + strconv.FormatFloat(params.Threshold, 'g', -1, 64) +
		":" + strconv.Itoa(params.TopK) +
		":" + snapshot
}

// CorrespondenceService builds, caches and queries correspondence tables.
type CorrespondenceService struct {
	triage       providers.TriageSource
	providerData *ProviderDataService
	builder      *CorrespondenceBuilder
	selector     *MatcherSelector
	cache        *CorrespondenceCache
	l2           providers.CacheProvider
	l2TTL        time.Duration
	metrics      *observability.Metrics
}

// NewCorrespondenceService creates a new correspondence service. l2 may be
// nil.
func NewCorrespondenceService(
	triage providers.TriageSource,
	providerData *ProviderDataService,
	builder *CorrespondenceBuilder,
	selector *MatcherSelector,
	cache *CorrespondenceCache,
	l2 providers.CacheProvider,
	l2TTL time.Duration,
	metrics *observability.Metrics,
) *CorrespondenceService {
	return &CorrespondenceService{
		triage:       triage,
		providerData: providerData,
		builder:      builder,
		selector:     selector,
		cache:        cache,
		l2:           l2,
		l2TTL:        l2TTL,
		metrics:      metrics,
	}
}

// ValidateParams checks a parameter triple.
func ValidateParams(params entities.TableParams) error {
	if params.Threshold < 0 || params.Threshold > 1 {
		return apperrors.NewValidationError(fmt.Sprintf("threshold must be within [0, 1], got %v", params.Threshold))
	}
	if params.TopK < 1 {
		return apperrors.NewValidationError(fmt.Sprintf("top_k must be positive, got %d", params.TopK))
	}
	if !params.Method.IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown match method %q", params.Method))
	}
	return nil
}

// BuildTable returns the correspondence table for params on the current data
// snapshot, building it on a cache miss.
func (s *CorrespondenceService) BuildTable(ctx context.Context, params entities.TableParams) (*entities.CorrespondenceTable, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}

	dataset, snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	key := CorrespondenceCacheKey(params, snapshot)
	if table, ok := s.cache.Get(key); ok {
		observability.RecordCacheHit(ctx, s.metrics, "correspondence")
		return table, nil
	}
	observability.RecordCacheMiss(ctx, s.metrics, "correspondence")

	if table := s.loadL2(ctx, key, params.Method); table != nil {
		s.cache.Put(key, table)
		return table, nil
	}

	table, err := s.build(ctx, params, dataset, snapshot)
	if err != nil {
		return nil, err
	}

	// A degraded table stays local: other instances may have a working
	// embedding model and must build the requested strategy themselves.
	s.cache.Put(key, table)
	if table.Strategy == params.Method {
		s.storeL2(ctx, key, table)
	}
	return table, nil
}

// Vocabulary returns the services offered in the current provider dataset.
func (s *CorrespondenceService) Vocabulary(ctx context.Context) (*ServiceVocabulary, error) {
	dataset, err := s.providerData.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return NewServiceVocabulary(dataset.Providers), nil
}

// GetRecommendedServices looks up the entry for a triage outcome. An outcome
// absent from the table is resolved on demand with the table's parameters.
// The returned entry may carry MatchMethodNone; that is a result, not an
// error.
func (s *CorrespondenceService) GetRecommendedServices(
	ctx context.Context,
	table *entities.CorrespondenceTable,
	category string,
	urgency entities.TriageLevel,
	specialty string,
) (entities.CorrespondenceEntry, error) {
	if !urgency.Valid() {
		return entities.CorrespondenceEntry{}, apperrors.NewValidationError("urgency must be one of T1..T5")
	}
	category = utils.NormalizeIdentifier(category)
	specialty = utils.NormalizeIdentifier(specialty)

	if entry, ok := table.LookupCategory(category, urgency, specialty); ok {
		return entry, nil
	}

	vocab, err := s.Vocabulary(ctx)
	if err != nil {
		return entities.CorrespondenceEntry{}, err
	}
	matcher, err := s.selector.Select(ctx, table.Strategy)
	if err != nil {
		return entities.CorrespondenceEntry{}, err
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("urgency", urgency.String()).
		Str("specialty", specialty).
		Msg("Outcome not in correspondence table, resolving on demand")

	return s.builder.ResolveCase(ctx, entities.ClinicalCase{
		Category:  category,
		Urgency:   urgency,
		Specialty: specialty,
	}, vocab, matcher, table.Params)
}

func (s *CorrespondenceService) snapshot(ctx context.Context) (*ProviderDataset, string, error) {
	triageVersion, err := s.triage.Version(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("triage source version: %w", err)
	}
	dataset, err := s.providerData.Dataset(ctx)
	if err != nil {
		return nil, "", err
	}

	h := sha1.New()
	_, _ = fmt.Fprintf(h, "triage:%s|providers:%s", triageVersion, dataset.Version)
	return dataset, hex.EncodeToString(h.Sum(nil))[:16], nil
}

func (s *CorrespondenceService) build(
	ctx context.Context,
	params entities.TableParams,
	dataset *ProviderDataset,
	snapshot string,
) (*entities.CorrespondenceTable, error) {
	ctx, span := observability.StartSpan(ctx, "CorrespondenceService.build")
	defer span.End()
	start := time.Now()

	records, err := s.triage.LoadTriage(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("load triage: %w", err)
	}
	cases, err := BuildCaseTable(ctx, records)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	matcher, err := s.selector.Select(ctx, params.Method)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	vocab := NewServiceVocabulary(dataset.Providers)
	table, err := s.builder.Build(ctx, cases.Cases, vocab, matcher, params, snapshot)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	duration := time.Since(start)
	observability.SetSpanAttributes(span,
		attribute.String("match.method", string(params.Method)),
		attribute.String("match.strategy", string(table.Strategy)),
		attribute.Float64("match.threshold", params.Threshold),
		attribute.Int("match.top_k", params.TopK),
		attribute.Int("table.entries", table.Len()),
	)
	observability.RecordTableBuild(ctx, s.metrics, string(table.Strategy), table.Len(), duration)
	observability.LoggerFromContext(ctx).Info().
		Str("method", string(params.Method)).
		Str("strategy", string(table.Strategy)).
		Float64("threshold", params.Threshold).
		Int("top_k", params.TopK).
		Int("cases", len(cases.Cases)).
		Int("services", vocab.Len()).
		Int("entries", table.Len()).
		Dur("duration", duration).
		Msg("Correspondence table built")

	return table, nil
}

// loadL2 returns the shared table for key when it was built with the wanted
// strategy.
func (s *CorrespondenceService) loadL2(ctx context.Context, key string, want entities.MatchStrategy) *entities.CorrespondenceTable {
	if s.l2 == nil {
		return nil
	}
	data, err := s.l2.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}
	var table entities.CorrespondenceTable
	if err := json.Unmarshal(data, &table); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Discarding unreadable cached table")
		return nil
	}
	if table.Strategy != want {
		observability.LoggerFromContext(ctx).Warn().
			Str("key", key).
			Str("strategy", string(table.Strategy)).
			Msg("Ignoring shared table built with a degraded strategy")
		return nil
	}
	observability.RecordCacheHit(ctx, s.metrics, "correspondence_l2")
	return &table
}

func (s *CorrespondenceService) storeL2(ctx context.Context, key string, table *entities.CorrespondenceTable) {
	if s.l2 == nil {
		return
	}
	data, err := json.Marshal(table)
	if err != nil {
		return
	}
	if err := s.l2.Set(ctx, key, data, s.l2TTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to store table in shared cache")
	}
}
