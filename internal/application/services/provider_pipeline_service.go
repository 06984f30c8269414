package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/jhonattanreales21/rutasalud/internal/domain/catalog"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

// Registry columns after header normalization.
const (
	colProvider       = "prestador"
	colBranch         = "sucursal_prestador"
	colDepartment     = "departamento"
	colMunicipality   = "municipio"
	colAddress        = "direccion_domicilio"
	colLatitude       = "valor_latitud"
	colLongitude      = "valor_longitud"
	colBillingConcept = "concepto_factura"
	colRouting        = "direccionamiento"
	colBusinessHours  = "horario_habil"
	colPhone          = "telefono"
	colMobile         = "telefono_celular"
)

// PipelineReport counts the rows surviving each cleaning stage.
type PipelineReport struct {
	Input            int `json:"input"`
	WithProvider     int `json:"with_provider"`
	NotBlacklisted   int `json:"not_blacklisted"`
	Routable         int `json:"routable"`
	WithCoordinates  int `json:"with_coordinates"`
	AllowedService   int `json:"allowed_service"`
	Output           int `json:"output"`
	MalformedRecords int `json:"malformed_records"`
}

// ProviderPipeline cleans raw registry rows into providers. Every stage
// skips bad rows; none aborts the batch.
type ProviderPipeline struct {
	catalog *catalog.Catalog
}

// NewProviderPipeline creates a new provider pipeline
func NewProviderPipeline(c *catalog.Catalog) *ProviderPipeline {
	return &ProviderPipeline{catalog: c}
}

type providerRow struct {
	raw      entities.RawProviderRecord
	cols     map[string]string
	location entities.Location
	priority int
	service  string
}

// Clean runs the eight cleaning stages in order and returns the surviving
// providers in source order.
func (p *ProviderPipeline) Clean(ctx context.Context, records []entities.RawProviderRecord) ([]entities.Provider, PipelineReport) {
	logger := observability.LoggerFromContext(ctx)
	report := PipelineReport{Input: len(records)}

	// 1. normalize column names and trim cells
	rows := make([]*providerRow, 0, len(records))
	for _, rec := range records {
		cols := make(map[string]string, len(rec))
		for k, v := range rec {
			cols[utils.NormalizeColumnName(k)] = strings.TrimSpace(v)
		}
		rows = append(rows, &providerRow{raw: rec, cols: cols})
	}

	// 2. drop rows without a provider
	rows = filterRows(rows, func(r *providerRow) bool {
		return r.cols[colProvider] != ""
	})
	report.WithProvider = len(rows)

	// 3. drop blacklisted providers
	rows = filterRows(rows, func(r *providerRow) bool {
		return !p.catalog.IsBlacklisted(r.cols[colProvider])
	})
	report.NotBlacklisted = len(rows)

	// 4. drop rows routed away from public recommendation
	rows = filterRows(rows, func(r *providerRow) bool {
		code, ok := parseRoutingCode(r.cols[colRouting])
		if !ok {
			r.priority = entities.UnknownPriority
			return true
		}
		r.priority = code
		return code != p.catalog.ExcludedRoutingCode
	})
	report.Routable = len(rows)

	// 5. drop rows with missing, zero or unparseable coordinates
	rows = filterRows(rows, func(r *providerRow) bool {
		lat, latOK, latErr := parseCoordinate(r.cols[colLatitude])
		lng, lngOK, lngErr := parseCoordinate(r.cols[colLongitude])
		if latErr != nil || lngErr != nil {
			report.MalformedRecords++
			logger.Debug().
				Err(apperrors.NewDataError(0, "coordinates", "unparseable coordinate")).
				Str("provider", r.cols[colProvider]).
				Str("lat", r.cols[colLatitude]).
				Str("lng", r.cols[colLongitude]).
				Msg("Dropping provider row")
			return false
		}
		if !latOK || !lngOK {
			return false
		}
		r.location = entities.Location{Latitude: lat, Longitude: lng}
		return r.location.Valid()
	})
	report.WithCoordinates = len(rows)

	// 6. billing description to canonical service
	for _, r := range rows {
		r.service = utils.NormalizeIdentifier(r.cols[colBillingConcept])
	}

	// 7. allow-list
	rows = filterRows(rows, func(r *providerRow) bool {
		return p.catalog.IsAllowedService(r.service)
	})
	report.AllowedService = len(rows)

	// 8. rename to the output schema
	out := make([]entities.Provider, 0, len(rows))
	for _, r := range rows {
		out = append(out, entities.Provider{
			Name:          r.cols[colProvider],
			Branch:        r.cols[colBranch],
			Department:    utils.TitleCase(r.cols[colDepartment]),
			Municipality:  utils.TitleCase(r.cols[colMunicipality]),
			Address:       r.cols[colAddress],
			Location:      r.location,
			Service:       p.catalog.Rename(r.service),
			Priority:      r.priority,
			BusinessHours: r.cols[colBusinessHours],
			Phone:         r.cols[colPhone],
			Mobile:        r.cols[colMobile],
			Raw:           r.raw,
		})
	}
	report.Output = len(out)

	logger.Debug().
		Int("input", report.Input).
		Int("with_provider", report.WithProvider).
		Int("not_blacklisted", report.NotBlacklisted).
		Int("routable", report.Routable).
		Int("with_coordinates", report.WithCoordinates).
		Int("allowed_service", report.AllowedService).
		Int("malformed", report.MalformedRecords).
		Msg("Provider pipeline finished")

	return out, report
}

func filterRows(rows []*providerRow, keep func(*providerRow) bool) []*providerRow {
	out := rows[:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// parseRoutingCode reads codes stored as "9" or "9.0".
func parseRoutingCode(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// parseCoordinate returns ok=false for an empty cell and an error for a
// cell that is not a number. A decimal comma is accepted.
func parseCoordinate(value string) (float64, bool, error) {
	if value == "" {
		return 0, false, nil
	}
	if !strings.Contains(value, ".") {
		value = strings.Replace(value, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

// LocationMergeKey selects how supplemental coordinates are joined to
// registry rows.
type LocationMergeKey string

const (
	// MergeByProviderService joins on provider name and service.
	MergeByProviderService LocationMergeKey = "provider_service"
	// MergeByBranchArea joins on branch, department and municipality.
	MergeByBranchArea LocationMergeKey = "branch_area"
)

// ParseLocationMergeKey validates a configured merge key.
func ParseLocationMergeKey(value string) (LocationMergeKey, error) {
	switch k := LocationMergeKey(value); k {
	case MergeByProviderService, MergeByBranchArea:
		return k, nil
	case "":
		return MergeByProviderService, nil
	}
	return "", apperrors.NewValidationError("unknown location merge key " + strconv.Quote(value))
}

func (k LocationMergeKey) of(p entities.Provider) string {
	if k == MergeByBranchArea {
		return utils.NormalizeIdentifier(p.Branch) + "|" +
			utils.NormalizeIdentifier(p.Department) + "|" +
			utils.NormalizeIdentifier(p.Municipality)
	}
	return utils.NormalizeIdentifier(p.Name) + "|" + p.Service
}

// MergeLocations overwrites address and coordinates of every registry
// provider whose key appears in the supplemental registry. Supplemental rows
// are deduplicated first-seen per key. It returns the merged copy and the
// number of providers updated.
func MergeLocations(registry, supplemental []entities.Provider, key LocationMergeKey) ([]entities.Provider, int) {
	byKey := make(map[string]entities.Provider, len(supplemental))
	for _, s := range supplemental {
		k := key.of(s)
		if _, dup := byKey[k]; !dup {
			byKey[k] = s
		}
	}

	out := make([]entities.Provider, len(registry))
	updated := 0
	for i, p := range registry {
		if s, ok := byKey[key.of(p)]; ok {
			if s.Address != "" {
				p.Address = s.Address
			}
			p.Location = s.Location
			p.LocationUnknown = false
			updated++
		}
		out[i] = p
	}
	return out, updated
}
