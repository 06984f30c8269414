package providers

import (
	"context"
	"errors"
)

// ErrAddressNotFound is returned when the geocoder has no result for a query.
// It is final and never retried.
var ErrAddressNotFound = errors.New("address not found")

// GeolocationProvider resolves free-text addresses to coordinates and back.
type GeolocationProvider interface {
	// Geocode converts an address to coordinates
	Geocode(ctx context.Context, address string) (*Coordinates, error)

	// ReverseGeocode converts coordinates to an address
	ReverseGeocode(ctx context.Context, lat, lon float64) (*GeocodedAddress, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// GeocodedAddress represents a reverse-geocoded address. Department and
// Municipality follow the Colombian administrative division.
type GeocodedAddress struct {
	FormattedAddress string      `json:"formatted_address"`
	Street           string      `json:"street,omitempty"`
	Municipality     string      `json:"municipality,omitempty"`
	Department       string      `json:"department,omitempty"`
	Country          string      `json:"country,omitempty"`
	Coordinates      Coordinates `json:"coordinates"`
}
