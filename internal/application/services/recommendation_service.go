package services

import (
	"context"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// RecommendationRequest is one completed triage plus the user's area. Nil
// Params or MaxDistanceKm fall back to the service defaults.
type RecommendationRequest struct {
	Category      string
	Urgency       string
	Specialty     string
	Department    string
	Municipality  string
	Location      *entities.Location
	MaxDistanceKm *float64
	Params        *entities.TableParams
}

// RecommendationDefaults are applied to requests that leave fields unset.
type RecommendationDefaults struct {
	Params        entities.TableParams
	MaxDistanceKm float64
}

// RecommendationService turns a triage outcome into ranked providers.
type RecommendationService struct {
	correspondence *CorrespondenceService
	providerData   *ProviderDataService
	filter         *RecommendationFilter
	defaults       RecommendationDefaults
	metrics        *observability.Metrics
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	correspondence *CorrespondenceService,
	providerData *ProviderDataService,
	filter *RecommendationFilter,
	defaults RecommendationDefaults,
	metrics *observability.Metrics,
) *RecommendationService {
	return &RecommendationService{
		correspondence: correspondence,
		providerData:   providerData,
		filter:         filter,
		defaults:       defaults,
		metrics:        metrics,
	}
}

// Defaults returns the parameters applied to incomplete requests.
func (s *RecommendationService) Defaults() RecommendationDefaults {
	return s.defaults
}

// Recommend resolves the services for the request's clinical outcome and
// ranks the providers offering them. "No service matched" and "no provider
// found" are statuses on the result, not errors.
func (s *RecommendationService) Recommend(ctx context.Context, req RecommendationRequest) (*entities.Recommendation, error) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.Recommend")
	defer span.End()

	urgency, err := entities.ParseTriageLevel(req.Urgency)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	params := s.defaults.Params
	if req.Params != nil {
		params = *req.Params
	}
	maxDistance := s.defaults.MaxDistanceKm
	if req.MaxDistanceKm != nil {
		maxDistance = *req.MaxDistanceKm
	}
	if maxDistance < 0 {
		return nil, apperrors.NewValidationError("max_distance_km must not be negative")
	}
	if req.Location != nil && !req.Location.Valid() {
		return nil, apperrors.NewValidationError("location must carry valid non-zero coordinates")
	}

	table, err := s.correspondence.BuildTable(ctx, params)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	entry, err := s.correspondence.GetRecommendedServices(ctx, table, req.Category, urgency, req.Specialty)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	rec := &entities.Recommendation{
		Entry:     entry,
		Providers: []entities.RankedProvider{},
	}

	if !entry.HasMatch() {
		rec.Status = entities.RecommendationStatusNoServiceMatch
	} else {
		dataset, err := s.providerData.Dataset(ctx)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		rec.Providers = s.filter.Filter(dataset.Providers, FilterCriteria{
			Services:      entry.Services(),
			Department:    req.Department,
			Municipality:  req.Municipality,
			UserLocation:  req.Location,
			MaxDistanceKm: maxDistance,
		})
		rec.Status = entities.RecommendationStatusOK
		if len(rec.Providers) == 0 {
			rec.Status = entities.RecommendationStatusNoProviders
		}
	}

	observability.SetSpanAttributes(span,
		attribute.String("triage.urgency", urgency.String()),
		attribute.String("triage.specialty", entry.Specialty),
		attribute.String("recommendation.status", string(rec.Status)),
		attribute.String("recommendation.method", string(entry.Method)),
		attribute.Int("recommendation.providers", len(rec.Providers)),
	)
	observability.RecordRecommendation(ctx, s.metrics, string(rec.Status), string(entry.Method))
	observability.LoggerFromContext(ctx).Info().
		Str("urgency", urgency.String()).
		Str("specialty", entry.Specialty).
		Str("method", string(entry.Method)).
		Strs("services", entry.Services()).
		Str("status", string(rec.Status)).
		Int("providers", len(rec.Providers)).
		Msg("Recommendation served")

	return rec, nil
}
