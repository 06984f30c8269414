// Package bootstrap assembles the recommendation core from configuration. The
// API server and the command-line tools share it so they always build tables
// the same way.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhonattanreales21/rutasalud/internal/adapters/cache"
	"github.com/jhonattanreales21/rutasalud/internal/adapters/database"
	"github.com/jhonattanreales21/rutasalud/internal/adapters/embedding"
	"github.com/jhonattanreales21/rutasalud/internal/adapters/providers/geolocation"
	"github.com/jhonattanreales21/rutasalud/internal/adapters/sources"
	"github.com/jhonattanreales21/rutasalud/internal/application/services"
	"github.com/jhonattanreales21/rutasalud/internal/domain/catalog"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/clients/postgres"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/clients/redis"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	"github.com/jhonattanreales21/rutasalud/pkg/config"
)

const cacheNamespace = "rutasalud"

// Core holds the wired services.
type Core struct {
	Config         *config.Config
	Catalog        *catalog.Catalog
	ProviderData   *services.ProviderDataService
	Correspondence *services.CorrespondenceService
	Recommendation *services.RecommendationService
	// Geocoding is nil when no geocoder is configured.
	Geocoding *services.GeocodingService

	Redis    *redis.Client
	Postgres *postgres.Client

	closers []func() error
}

// Options tunes what Build wires beyond the core.
type Options struct {
	// WithGeocoding wires the geolocation provider.
	WithGeocoding bool
	// WithSharedCache connects to Redis when enabled in configuration.
	WithSharedCache bool
}

// DefaultParams returns the configured table parameters.
func DefaultParams(cfg *config.Config) entities.TableParams {
	return entities.TableParams{
		Threshold: cfg.Matching.Threshold,
		TopK:      cfg.Matching.TopK,
		Method:    entities.MatchStrategy(cfg.Matching.Method),
	}
}

// Build connects the configured sources and caches and wires the services.
// Redis is optional: a failed connection is logged and the core runs with
// the in-process cache only.
func Build(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, opts Options) (*Core, error) {
	logger := observability.LoggerFromContext(ctx)
	core := &Core{Config: cfg}

	rules, err := catalog.Load(cfg.Data.RulesPath)
	if err != nil {
		return nil, err
	}
	core.Catalog = rules

	mergeKey, err := services.ParseLocationMergeKey(cfg.Matching.LocationMergeKey)
	if err != nil {
		return nil, err
	}

	triageSource, providerSource, err := core.dataSources(ctx)
	if err != nil {
		core.Close()
		return nil, err
	}

	var shared providers.CacheProvider
	if opts.WithSharedCache && cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, continuing with in-process caches only")
		} else {
			core.Redis = client
			core.closers = append(core.closers, client.Close)
			shared = cache.NewRedisAdapter(client, cacheNamespace)
		}
	}

	// The model loads on the first semantic build, not here.
	loadEmbedder := embedding.Loader(embedding.Config{
		SharedLibraryPath: cfg.Embedding.SharedLibraryPath,
		ModelPath:         cfg.Embedding.ModelPath,
		TokenizerPath:     cfg.Embedding.TokenizerPath,
		ModelID:           cfg.Embedding.ModelID,
		MaxSeqLen:         cfg.Embedding.MaxSeqLen,
		Dimension:         cfg.Embedding.Dimension,
		CacheSize:         cfg.Embedding.CacheSize,
	})

	core.ProviderData = services.NewProviderDataService(providerSource, services.NewProviderPipeline(rules), mergeKey, metrics)
	core.Correspondence = services.NewCorrespondenceService(
		triageSource,
		core.ProviderData,
		services.NewCorrespondenceBuilder(rules, services.NewUrgencyFallbackResolver(rules)),
		services.NewMatcherSelector(loadEmbedder, cfg.Matching.AllowDegrade, metrics),
		services.NewCorrespondenceCache(),
		shared,
		cfg.Cache.TableTTL,
		metrics,
	)
	core.Recommendation = services.NewRecommendationService(
		core.Correspondence,
		core.ProviderData,
		services.NewRecommendationFilter(cfg.Recommendation.ResultLimit),
		services.RecommendationDefaults{
			Params:        DefaultParams(cfg),
			MaxDistanceKm: cfg.Recommendation.MaxDistanceKm,
		},
		metrics,
	)

	if opts.WithGeocoding {
		geoCache := shared
		if geoCache == nil {
			geoCache = cache.NewMemoryAdapter()
		}
		provider, err := newGeolocationProvider(cfg.Geolocation, geoCache)
		if err != nil {
			core.Close()
			return nil, err
		}
		core.Geocoding = services.NewGeocodingService(provider, cfg.Geolocation.RetryAttempts, cfg.Geolocation.RetryDelay)
	}

	logger.Info().
		Str("data_source", cfg.Data.Source).
		Str("method", cfg.Matching.Method).
		Float64("threshold", cfg.Matching.Threshold).
		Int("top_k", cfg.Matching.TopK).
		Bool("shared_cache", shared != nil).
		Bool("geocoding", core.Geocoding != nil).
		Msg("Recommendation core wired")

	return core, nil
}

func (c *Core) dataSources(ctx context.Context) (providers.TriageSource, providers.ProviderSource, error) {
	switch c.Config.Data.Source {
	case "postgres":
		client, err := postgres.NewClient(ctx, &c.Config.Database)
		if err != nil {
			return nil, nil, err
		}
		c.Postgres = client
		c.closers = append(c.closers, client.Close)
		db := client.SQLX()
		return database.NewTriageSource(db), database.NewProviderSource(db), nil
	case "file":
		return sources.NewFileTriageSource(c.Config.Data.TriagePath, ""),
			sources.NewFileProviderSource(c.Config.Data.ProviderRegistryPath, c.Config.Data.ProviderLocationsPath),
			nil
	default:
		return nil, nil, fmt.Errorf("unknown data source %q", c.Config.Data.Source)
	}
}

func newGeolocationProvider(cfg config.GeolocationConfig, geoCache providers.CacheProvider) (providers.GeolocationProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "mock":
		return geolocation.NewMockGeolocationProvider(), nil
	case "nominatim":
		return geolocation.NewNominatimProvider(geoCache, geolocation.NominatimOptions{
			BaseURL:       cfg.BaseURL,
			UserAgent:     cfg.UserAgent,
			CountrySuffix: cfg.CountrySuffix,
		}), nil
	default:
		return nil, fmt.Errorf("unknown geolocation provider %q", cfg.Provider)
	}
}

// Close releases connections in reverse order of creation.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}
