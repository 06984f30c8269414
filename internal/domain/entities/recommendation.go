package entities

// RecommendationStatus tells the caller how a recommendation request ended.
type RecommendationStatus string

const (
	// RecommendationStatusOK means at least one provider was ranked.
	RecommendationStatusOK RecommendationStatus = "ok"
	// RecommendationStatusNoServiceMatch means no provider service could be
	// matched for the clinical case.
	RecommendationStatusNoServiceMatch RecommendationStatus = "no_service_match"
	// RecommendationStatusNoProviders means services matched but no provider
	// survived the area and distance filters.
	RecommendationStatusNoProviders RecommendationStatus = "no_providers_found"
)

// RankedProvider is a provider in recommendation order. DistanceKm is set
// only when a user location was supplied.
type RankedProvider struct {
	Provider
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Recommendation is the outcome of one completed triage.
type Recommendation struct {
	Status    RecommendationStatus `json:"status"`
	Entry     CorrespondenceEntry  `json:"entry"`
	Providers []RankedProvider     `json:"providers"`
}
