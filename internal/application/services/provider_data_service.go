package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ProviderDataset is a cleaned provider snapshot.
type ProviderDataset struct {
	Version   string
	Providers []entities.Provider
	Report    PipelineReport
	// LocationsMerged counts registry rows that took supplemental coordinates.
	LocationsMerged int
}

// ProviderDataService serves the cleaned provider dataset, rebuilding it
// whenever the provider source version changes.
type ProviderDataService struct {
	source   providers.ProviderSource
	pipeline *ProviderPipeline
	mergeKey LocationMergeKey
	metrics  *observability.Metrics

	mu      sync.RWMutex
	current *ProviderDataset
}

// NewProviderDataService creates a new provider data service
func NewProviderDataService(
	source providers.ProviderSource,
	pipeline *ProviderPipeline,
	mergeKey LocationMergeKey,
	metrics *observability.Metrics,
) *ProviderDataService {
	return &ProviderDataService{
		source:   source,
		pipeline: pipeline,
		mergeKey: mergeKey,
		metrics:  metrics,
	}
}

// Dataset returns the cleaned providers for the current source version.
// Concurrent misses may each rebuild; the last one stored wins.
func (s *ProviderDataService) Dataset(ctx context.Context) (*ProviderDataset, error) {
	version, err := s.source.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider source version: %w", err)
	}

	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current != nil && current.Version == version {
		observability.RecordCacheHit(ctx, s.metrics, "providers")
		return current, nil
	}
	observability.RecordCacheMiss(ctx, s.metrics, "providers")

	dataset, err := s.build(ctx, version)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = dataset
	s.mu.Unlock()
	return dataset, nil
}

func (s *ProviderDataService) build(ctx context.Context, version string) (*ProviderDataset, error) {
	ctx, span := observability.StartSpan(ctx, "ProviderDataService.build")
	defer span.End()

	raw, err := s.source.LoadProviders(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("load providers: %w", err)
	}

	registry, report := s.pipeline.Clean(ctx, raw.Registry)
	merged := 0
	if len(raw.Locations) > 0 {
		locations, _ := s.pipeline.Clean(ctx, raw.Locations)
		registry, merged = MergeLocations(registry, locations, s.mergeKey)
	}

	observability.SetSpanAttributes(span,
		attribute.String("providers.version", version),
		attribute.Int("providers.count", len(registry)),
		attribute.Int("providers.locations_merged", merged),
	)
	observability.LoggerFromContext(ctx).Info().
		Str("version", version).
		Int("providers", len(registry)).
		Int("locations_merged", merged).
		Msg("Provider dataset rebuilt")

	return &ProviderDataset{
		Version:         version,
		Providers:       registry,
		Report:          report,
		LocationsMerged: merged,
	}, nil
}
