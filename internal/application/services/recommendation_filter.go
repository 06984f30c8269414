package services

import (
	"math"
	"sort"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

// DefaultResultLimit caps the providers returned for one recommendation.
const DefaultResultLimit = 5

// FilterCriteria selects and ranks providers for one clinical outcome.
// Empty Department or Municipality leaves that field unconstrained.
type FilterCriteria struct {
	Services      []string
	Department    string
	Municipality  string
	UserLocation  *entities.Location
	MaxDistanceKm float64
}

// RecommendationFilter filters providers by service, administrative area and
// distance, then ranks the survivors.
type RecommendationFilter struct {
	limit int
}

// NewRecommendationFilter creates a filter returning at most limit providers.
// The limit is clamped to (0, DefaultResultLimit].
func NewRecommendationFilter(limit int) *RecommendationFilter {
	if limit <= 0 || limit > DefaultResultLimit {
		limit = DefaultResultLimit
	}
	return &RecommendationFilter{limit: limit}
}

// Filter returns the ranked providers matching criteria. The result is empty,
// never nil, when nothing survives.
func (f *RecommendationFilter) Filter(providers []entities.Provider, criteria FilterCriteria) []entities.RankedProvider {
	ranked := make([]entities.RankedProvider, 0)
	if len(providers) == 0 || len(criteria.Services) == 0 {
		return ranked
	}

	services := make(map[string]struct{}, len(criteria.Services))
	for _, s := range criteria.Services {
		services[s] = struct{}{}
	}
	department := utils.NormalizeIdentifier(criteria.Department)
	municipality := utils.NormalizeIdentifier(criteria.Municipality)

	origin := criteria.UserLocation
	if origin != nil && !origin.Valid() {
		origin = nil
	}

	for _, p := range providers {
		if _, ok := services[p.Service]; !ok {
			continue
		}
		if department != "" && utils.NormalizeIdentifier(p.Department) != department {
			continue
		}
		if municipality != "" && utils.NormalizeIdentifier(p.Municipality) != municipality {
			continue
		}

		rp := entities.RankedProvider{Provider: p}
		if origin != nil {
			if !p.HasLocation() {
				continue
			}
			d := haversineKm(*origin, p.Location)
			if criteria.MaxDistanceKm > 0 && d > criteria.MaxDistanceKm {
				continue
			}
			rp.DistanceKm = &d
		}
		ranked = append(ranked, rp)
	}

	if origin != nil {
		sort.SliceStable(ranked, func(i, j int) bool {
			di, dj := *ranked[i].DistanceKm, *ranked[j].DistanceKm
			if di != dj {
				return di < dj
			}
			return ranked[i].Priority < ranked[j].Priority
		})
	} else {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Priority < ranked[j].Priority
		})
	}

	if len(ranked) > f.limit {
		ranked = ranked[:f.limit]
	}
	return ranked
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(from, to entities.Location) float64 {
	const earthRadiusKm = 6371.0
	dLat := degreesToRadians(to.Latitude - from.Latitude)
	dLon := degreesToRadians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(from.Latitude))*math.Cos(degreesToRadians(to.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
