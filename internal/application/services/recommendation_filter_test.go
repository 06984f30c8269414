package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
)

func bogotaProvider(name string, lat, lng float64, priority int) entities.Provider {
	return entities.Provider{
		Name:         name,
		Department:   "Cundinamarca",
		Municipality: "Bogota D.C.",
		Service:      "urgencias_medico_general",
		Location:     entities.Location{Latitude: lat, Longitude: lng},
		Priority:     priority,
	}
}

func TestHaversineKm(t *testing.T) {
	user := entities.Location{Latitude: 4.6097, Longitude: -74.0817}
	near := entities.Location{Latitude: 4.6100, Longitude: -74.0820}

	assert.InDelta(t, 0.047, haversineKm(user, near), 0.01)
	assert.Equal(t, 0.0, haversineKm(user, user))
	assert.InDelta(t, haversineKm(user, near), haversineKm(near, user), 1e-12)
}

func TestRecommendationFilter_DistanceCutoff(t *testing.T) {
	f := NewRecommendationFilter(5)
	user := entities.Location{Latitude: 4.6097, Longitude: -74.0817}
	providers := []entities.Provider{
		bogotaProvider("Cerca", 4.6100, -74.0820, 3),
		// roughly 80 km north
		bogotaProvider("Lejos", 5.3300, -74.0817, 1),
	}

	got := f.Filter(providers, FilterCriteria{
		Services:      []string{"urgencias_medico_general"},
		UserLocation:  &user,
		MaxDistanceKm: 50,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Cerca", got[0].Name)
	require.NotNil(t, got[0].DistanceKm)
	assert.InDelta(t, 0.047, *got[0].DistanceKm, 0.01)

	all := f.Filter(providers, FilterCriteria{
		Services:      []string{"urgencias_medico_general"},
		UserLocation:  &user,
		MaxDistanceKm: 0,
	})
	assert.Len(t, all, 2, "a non-positive radius applies no cutoff")
}

func TestRecommendationFilter_ResultCap(t *testing.T) {
	f := NewRecommendationFilter(5)
	var providers []entities.Provider
	for i := 0; i < 40; i++ {
		providers = append(providers, bogotaProvider(fmt.Sprintf("P%02d", i), 4.6+float64(i)*0.001, -74.08, i%4))
	}
	user := entities.Location{Latitude: 4.6, Longitude: -74.08}

	for _, loc := range []*entities.Location{nil, &user} {
		got := f.Filter(providers, FilterCriteria{
			Services:      []string{"urgencias_medico_general"},
			UserLocation:  loc,
			MaxDistanceKm: 100,
		})
		assert.Len(t, got, 5)
	}
}

func TestRecommendationFilter_LimitClampedToDefault(t *testing.T) {
	var providers []entities.Provider
	for i := 0; i < 12; i++ {
		providers = append(providers, bogotaProvider(fmt.Sprintf("P%02d", i), 4.6, -74.08, 1))
	}
	criteria := FilterCriteria{Services: []string{"urgencias_medico_general"}, MaxDistanceKm: 100}

	for _, limit := range []int{-1, 0, 10, 50} {
		got := NewRecommendationFilter(limit).Filter(providers, criteria)
		assert.Len(t, got, DefaultResultLimit, "limit %d", limit)
	}
	assert.Len(t, NewRecommendationFilter(3).Filter(providers, criteria), 3)
}

func TestRecommendationFilter_SortByDistanceThenPriority(t *testing.T) {
	f := NewRecommendationFilter(5)
	user := entities.Location{Latitude: 4.60, Longitude: -74.08}
	providers := []entities.Provider{
		bogotaProvider("C", 4.62, -74.08, 1),
		bogotaProvider("B2", 4.61, -74.08, 2),
		bogotaProvider("A", 4.65, -74.08, 1),
		bogotaProvider("B1", 4.61, -74.08, 1),
		bogotaProvider("D", 4.61, -74.08, entities.UnknownPriority),
	}

	got := f.Filter(providers, FilterCriteria{
		Services:      []string{"urgencias_medico_general"},
		UserLocation:  &user,
		MaxDistanceKm: 50,
	})
	require.Len(t, got, 5)

	var names []string
	for i, rp := range got {
		names = append(names, rp.Name)
		if i == 0 {
			continue
		}
		prev := got[i-1]
		assert.LessOrEqual(t, *prev.DistanceKm, *rp.DistanceKm)
		if *prev.DistanceKm == *rp.DistanceKm {
			assert.LessOrEqual(t, prev.Priority, rp.Priority)
		}
	}
	assert.Equal(t, []string{"B1", "B2", "D", "C", "A"}, names)
}

func TestRecommendationFilter_PriorityOnlyWithoutLocation(t *testing.T) {
	f := NewRecommendationFilter(5)
	providers := []entities.Provider{
		bogotaProvider("Tercero", 4.62, -74.08, 3),
		bogotaProvider("Primero", 4.61, -74.08, 1),
		{Name: "SinUbicacion", Department: "Cundinamarca", Municipality: "Bogota D.C.", Service: "urgencias_medico_general", Priority: 2, LocationUnknown: true},
	}

	got := f.Filter(providers, FilterCriteria{Services: []string{"urgencias_medico_general"}})

	require.Len(t, got, 3)
	assert.Equal(t, "Primero", got[0].Name)
	assert.Equal(t, "SinUbicacion", got[1].Name)
	assert.Equal(t, "Tercero", got[2].Name)
	for _, rp := range got {
		assert.Nil(t, rp.DistanceKm)
	}
}

func TestRecommendationFilter_AreaAndService(t *testing.T) {
	f := NewRecommendationFilter(5)
	medellin := bogotaProvider("Medellin", 6.24, -75.58, 1)
	medellin.Department = "Antioquia"
	medellin.Municipality = "Medellin"
	otherService := bogotaProvider("Otro", 4.61, -74.08, 1)
	otherService.Service = "consulta_oftalmologia"
	unknown := bogotaProvider("SinUbicacion", 0, 0, 1)
	unknown.LocationUnknown = true

	providers := []entities.Provider{
		bogotaProvider("Bogota", 4.61, -74.08, 1),
		medellin,
		otherService,
		unknown,
	}
	user := entities.Location{Latitude: 4.60, Longitude: -74.08}

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []string
	}{
		{
			name: "accent and case insensitive area",
			criteria: FilterCriteria{
				Services:     []string{"urgencias_medico_general"},
				Department:   "CUNDINAMARCA",
				Municipality: "Bogotá D.C.",
			},
			want: []string{"Bogota", "SinUbicacion"},
		},
		{
			name:     "empty area means no constraint",
			criteria: FilterCriteria{Services: []string{"urgencias_medico_general"}},
			want:     []string{"Bogota", "Medellin", "SinUbicacion"},
		},
		{
			name: "providers without location are dropped when ranking by distance",
			criteria: FilterCriteria{
				Services:      []string{"urgencias_medico_general"},
				Department:    "Cundinamarca",
				UserLocation:  &user,
				MaxDistanceKm: 50,
			},
			want: []string{"Bogota"},
		},
		{
			name: "unknown department",
			criteria: FilterCriteria{
				Services:   []string{"urgencias_medico_general"},
				Department: "Narino",
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Filter(providers, tt.criteria)
			names := []string{}
			for _, rp := range got {
				names = append(names, rp.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRecommendationFilter_EmptyInputs(t *testing.T) {
	f := NewRecommendationFilter(0)
	user := entities.Location{Latitude: 4.6, Longitude: -74.08}

	got := f.Filter(nil, FilterCriteria{Services: []string{"urgencias_medico_general"}, UserLocation: &user, MaxDistanceKm: 10})
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = f.Filter([]entities.Provider{bogotaProvider("A", 4.61, -74.08, 1)}, FilterCriteria{})
	assert.Empty(t, got)
}
