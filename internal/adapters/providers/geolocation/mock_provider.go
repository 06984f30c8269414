package geolocation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

type mockCity struct {
	name       string
	department string
	coords     providers.Coordinates
}

// Municipality seats the mock geocoder knows about.
var mockCities = []mockCity{
	{name: "Bogota D.C.", department: "Bogota D.C.", coords: providers.Coordinates{Latitude: 4.6097, Longitude: -74.0817}},
	{name: "Medellin", department: "Antioquia", coords: providers.Coordinates{Latitude: 6.2442, Longitude: -75.5812}},
	{name: "Cali", department: "Valle del Cauca", coords: providers.Coordinates{Latitude: 3.4516, Longitude: -76.5320}},
	{name: "Barranquilla", department: "Atlantico", coords: providers.Coordinates{Latitude: 10.9685, Longitude: -74.7813}},
	{name: "Cartagena", department: "Bolivar", coords: providers.Coordinates{Latitude: 10.3910, Longitude: -75.4794}},
	{name: "Bucaramanga", department: "Santander", coords: providers.Coordinates{Latitude: 7.1193, Longitude: -73.1227}},
	{name: "Pereira", department: "Risaralda", coords: providers.Coordinates{Latitude: 4.8133, Longitude: -75.6961}},
}

// MockGeolocationProvider resolves addresses against a fixed list of
// Colombian cities. It never calls the network.
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() providers.GeolocationProvider {
	return &MockGeolocationProvider{}
}

// Geocode returns the coordinates of the first known city named in address.
func (m *MockGeolocationProvider) Geocode(_ context.Context, address string) (*providers.Coordinates, error) {
	normalized := utils.NormalizeIdentifier(address)
	for _, city := range mockCities {
		key := utils.NormalizeIdentifier(strings.TrimSuffix(city.name, " D.C."))
		if strings.Contains(normalized, key) {
			coords := city.coords
			return &coords, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", providers.ErrAddressNotFound, address)
}

// ReverseGeocode reports the nearest known city.
func (m *MockGeolocationProvider) ReverseGeocode(_ context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	point := providers.Coordinates{Latitude: lat, Longitude: lon}
	nearest := mockCities[0]
	best := math.Inf(1)
	for _, city := range mockCities {
		if d := distanceKm(point, city.coords); d < best {
			best = d
			nearest = city
		}
	}

	return &providers.GeocodedAddress{
		FormattedAddress: fmt.Sprintf("%s, %s, Colombia", nearest.name, nearest.department),
		Municipality:     nearest.name,
		Department:       nearest.department,
		Country:          "Colombia",
		Coordinates:      point,
	}, nil
}

func distanceKm(from, to providers.Coordinates) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := toRadians(from.Latitude)
	lat2Rad := toRadians(to.Latitude)
	deltaLat := toRadians(to.Latitude - from.Latitude)
	deltaLon := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
