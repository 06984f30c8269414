package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
)

const (
	nominatimURL           = "https://nominatim.openstreetmap.org"
	defaultUserAgent       = "rutasalud/1.0"
	defaultGeocodeCacheTTL = 30 * 24 * time.Hour
	defaultReverseCacheTTL = 30 * 24 * time.Hour
	defaultHTTPTimeout     = 8 * time.Second

	breakerFailures = 5
	breakerOpenFor  = 30 * time.Second
)

// NominatimOptions configures a NominatimProvider. Zero values use the public
// OpenStreetMap endpoint.
type NominatimOptions struct {
	BaseURL       string
	UserAgent     string
	CountrySuffix string
	HTTPClient    *http.Client
}

// NominatimProvider implements the GeolocationProvider using an
// OpenStreetMap Nominatim server. Results are cached in the shared cache
// when one is configured.
type NominatimProvider struct {
	baseURL       string
	userAgent     string
	countrySuffix string
	httpClient    *http.Client
	cache         providers.CacheProvider
	breaker       *gobreaker.CircuitBreaker
}

// NewNominatimProvider creates a new Nominatim geolocation provider.
func NewNominatimProvider(cache providers.CacheProvider, opts NominatimOptions) providers.GeolocationProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = nominatimURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &NominatimProvider{
		baseURL:       baseURL,
		userAgent:     userAgent,
		countrySuffix: strings.TrimSpace(opts.CountrySuffix),
		httpClient:    httpClient,
		cache:         cache,
		breaker:       newBreaker(),
	}
}

// newBreaker stops calling the server after consecutive failures so a down
// geocoder costs one fast error instead of a retry ladder per request.
func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "nominatim",
		Timeout: breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Geocoder circuit breaker changed state")
		},
	})
}

// Geocode converts an address to coordinates. The configured country suffix
// is appended unless the address already names it.
func (n *NominatimProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	query := n.withCountry(strings.TrimSpace(address))
	if query == "" {
		return nil, fmt.Errorf("address is required")
	}

	cacheKey := "geo:v1:geocode:" + hashKey(strings.ToLower(query))
	var cached providers.Coordinates
	if n.fromCache(ctx, cacheKey, &cached) && (cached.Latitude != 0 || cached.Longitude != 0) {
		return &cached, nil
	}

	var results []nominatimPlace
	params := url.Values{
		"q":      []string{query},
		"format": []string{"jsonv2"},
		"limit":  []string{"1"},
	}
	if err := n.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", providers.ErrAddressNotFound, query)
	}

	coords, err := results[0].coordinates()
	if err != nil {
		return nil, err
	}
	n.toCache(ctx, cacheKey, coords, defaultGeocodeCacheTTL)
	return &coords, nil
}

// ReverseGeocode converts coordinates to an address.
func (n *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	cacheKey := "geo:v1:reverse:" + hashKey(fmt.Sprintf("%.5f,%.5f", lat, lon))
	var cached providers.GeocodedAddress
	if n.fromCache(ctx, cacheKey, &cached) && (cached.Coordinates.Latitude != 0 || cached.Coordinates.Longitude != 0) {
		return &cached, nil
	}

	var place nominatimPlace
	params := url.Values{
		"lat":            []string{strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":            []string{strconv.FormatFloat(lon, 'f', 6, 64)},
		"format":         []string{"jsonv2"},
		"addressdetails": []string{"1"},
	}
	if err := n.get(ctx, "/reverse", params, &place); err != nil {
		return nil, err
	}
	if place.Error != "" {
		return nil, fmt.Errorf("%w: %s", providers.ErrAddressNotFound, place.Error)
	}

	coords, err := place.coordinates()
	if err != nil {
		return nil, err
	}
	address := providers.GeocodedAddress{
		FormattedAddress: place.DisplayName,
		Street:           buildStreet(place.Address),
		Municipality:     firstNonEmpty(place.Address.City, place.Address.Town, place.Address.Village, place.Address.Municipality),
		Department:       place.Address.State,
		Country:          place.Address.Country,
		Coordinates:      coords,
	}

	n.toCache(ctx, cacheKey, address, defaultReverseCacheTTL)
	return &address, nil
}

func (n *NominatimProvider) withCountry(address string) string {
	if address == "" || n.countrySuffix == "" {
		return address
	}
	if strings.Contains(strings.ToLower(address), strings.ToLower(n.countrySuffix)) {
		return address
	}
	return address + ", " + n.countrySuffix
}

func (n *NominatimProvider) get(ctx context.Context, path string, params url.Values, out any) error {
	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.fetch(ctx, path, params, out)
	})
	return err
}

func (n *NominatimProvider) fetch(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s%s?%s", n.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept-Language", "es")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode geocode response: %w", err)
	}
	return nil
}

func (n *NominatimProvider) fromCache(ctx context.Context, key string, out any) bool {
	if n.cache == nil {
		return false
	}
	data, err := n.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (n *NominatimProvider) toCache(ctx context.Context, key string, value any, ttl time.Duration) {
	if n.cache == nil {
		return
	}
	if payload, err := json.Marshal(value); err == nil {
		_ = n.cache.Set(ctx, key, payload, ttl)
	}
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func buildStreet(addr nominatimAddress) string {
	if addr.HouseNumber != "" && addr.Road != "" {
		return addr.Road + " # " + addr.HouseNumber
	}
	return addr.Road
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error,omitempty"`
}

func (p nominatimPlace) coordinates() (providers.Coordinates, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return providers.Coordinates{}, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return providers.Coordinates{}, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}
	return providers.Coordinates{Latitude: lat, Longitude: lon}, nil
}

type nominatimAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
	Country      string `json:"country"`
}
