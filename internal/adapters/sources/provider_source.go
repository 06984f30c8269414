package sources

import (
	"context"
	"fmt"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
)

// FileProviderSource reads the provider registry and the optional
// supplemental coordinate registry from spreadsheets.
type FileProviderSource struct {
	registryPath  string
	locationsPath string
}

// NewFileProviderSource creates a provider source. locationsPath may be
// empty.
func NewFileProviderSource(registryPath, locationsPath string) providers.ProviderSource {
	return &FileProviderSource{registryPath: registryPath, locationsPath: locationsPath}
}

// LoadProviders implements providers.ProviderSource.
func (s *FileProviderSource) LoadProviders(ctx context.Context) (*providers.ProviderDatasets, error) {
	registry, err := readRecords(s.registryPath)
	if err != nil {
		return nil, fmt.Errorf("provider registry: %w", err)
	}

	datasets := &providers.ProviderDatasets{Registry: registry}
	if s.locationsPath != "" {
		datasets.Locations, err = readRecords(s.locationsPath)
		if err != nil {
			return nil, fmt.Errorf("provider locations: %w", err)
		}
	}

	observability.LoggerFromContext(ctx).Debug().
		Int("registry_rows", len(datasets.Registry)).
		Int("location_rows", len(datasets.Locations)).
		Msg("Provider registries loaded")
	return datasets, nil
}

// Version implements providers.ProviderSource.
func (s *FileProviderSource) Version(context.Context) (string, error) {
	return fileVersion(s.registryPath, s.locationsPath)
}

// readRecords keys every data row by the header cell above it. Header
// normalization is left to the provider pipeline.
func readRecords(path string) ([]entities.RawProviderRecord, error) {
	rows, err := readTable(path, "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]entities.RawProviderRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec := make(entities.RawProviderRecord, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			rec[h] = cell(row, i)
		}
		records = append(records, rec)
	}
	return records, nil
}
