package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
	"github.com/jhonattanreales21/rutasalud/pkg/retry"
)

// GeocodingService resolves user addresses with bounded retries so the
// recommendation flow only ever sees resolved coordinates.
type GeocodingService struct {
	provider providers.GeolocationProvider
	retry    retry.Config
}

// NewGeocodingService creates a geocoding service retrying each lookup up to
// attempts times with a fixed delay.
func NewGeocodingService(provider providers.GeolocationProvider, attempts int, delay time.Duration) *GeocodingService {
	if attempts < 1 {
		attempts = 1
	}
	return &GeocodingService{
		provider: provider,
		retry:    retry.FixedConfig(attempts, delay),
	}
}

// Geocode converts a free-text address to a location.
func (s *GeocodingService) Geocode(ctx context.Context, address string) (*entities.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address is required")
	}

	var coords *providers.Coordinates
	err := s.do(ctx, "geocode", func() error {
		var err error
		coords, err = s.provider.Geocode(ctx, address)
		return err
	})
	if err != nil {
		return nil, err
	}

	loc := entities.Location{Latitude: coords.Latitude, Longitude: coords.Longitude}
	if !loc.Valid() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no usable coordinates for %q", address))
	}
	return &loc, nil
}

// ReverseGeocode converts a location to an address with its department and
// municipality.
func (s *GeocodingService) ReverseGeocode(ctx context.Context, loc entities.Location) (*providers.GeocodedAddress, error) {
	if !loc.Valid() {
		return nil, apperrors.NewValidationError("lat and lon must be valid non-zero coordinates")
	}

	var addr *providers.GeocodedAddress
	err := s.do(ctx, "reverse geocode", func() error {
		var err error
		addr, err = s.provider.ReverseGeocode(ctx, loc.Latitude, loc.Longitude)
		return err
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *GeocodingService) do(ctx context.Context, op string, fn func() error) error {
	logger := observability.LoggerFromContext(ctx)
	err := retry.DoWithLog(ctx, s.retry, op, func() error {
		err := fn()
		if errors.Is(err, providers.ErrAddressNotFound) {
			return retry.Permanent(err)
		}
		return err
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Geocoder call failed")
	})

	if errors.Is(err, providers.ErrAddressNotFound) {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s: no result", op))
	}
	if err != nil {
		return apperrors.NewExternalError(op+" failed", err)
	}
	return nil
}
