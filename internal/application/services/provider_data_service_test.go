package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhonattanreales21/rutasalud/internal/domain/catalog"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
)

func TestProviderDataService_CachesByVersion(t *testing.T) {
	source := &staticProviderSource{
		version: "v1",
		datasets: &providers.ProviderDatasets{
			Registry: []entities.RawProviderRecord{
				registryRow("Clinica Norte", "Cundinamarca", "Bogota", "4.7110", "-74.0721", "Urgencias Medico General", "1"),
			},
			Locations: []entities.RawProviderRecord{
				registryRow("Clinica Norte", "Cundinamarca", "Bogota", "4.6500", "-74.0500", "Urgencias Medico General", "1"),
			},
		},
	}
	svc := NewProviderDataService(source, NewProviderPipeline(catalog.Default()), MergeByProviderService, nil)

	first, err := svc.Dataset(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Providers, 1)
	assert.Equal(t, 1, first.LocationsMerged)
	assert.Equal(t, 4.65, first.Providers[0].Location.Latitude)

	second, err := svc.Dataset(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, source.loads)

	source.version = "v2"
	third, err := svc.Dataset(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, source.loads)
}
