package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
)

const (
	registryTable  = "provider_registry"
	locationsTable = "provider_locations"
)

// Registry columns, named as the normalized spreadsheet headers so the
// provider pipeline treats both sources alike.
var registryColumns = []string{
	"prestador",
	"sucursal_prestador",
	"departamento",
	"municipio",
	"direccion_domicilio",
	"valor_latitud",
	"valor_longitud",
	"concepto_factura",
	"direccionamiento",
	"horario_habil",
	"telefono",
	"telefono_celular",
}

// ProviderSource reads the provider registries from PostgreSQL.
type ProviderSource struct {
	db   *sqlx.DB
	goqu *goqu.Database
}

// NewProviderSource creates a provider source over db.
func NewProviderSource(db *sqlx.DB) providers.ProviderSource {
	return &ProviderSource{
		db:   db,
		goqu: goqu.New("postgres", db.DB),
	}
}

// LoadProviders implements providers.ProviderSource.
func (s *ProviderSource) LoadProviders(ctx context.Context) (*providers.ProviderDatasets, error) {
	registry, err := s.load(ctx, registryTable)
	if err != nil {
		return nil, err
	}
	locations, err := s.load(ctx, locationsTable)
	if err != nil {
		return nil, err
	}
	return &providers.ProviderDatasets{Registry: registry, Locations: locations}, nil
}

// Version implements providers.ProviderSource.
func (s *ProviderSource) Version(ctx context.Context) (string, error) {
	registry, err := tableVersion(ctx, s.db, s.goqu, registryTable)
	if err != nil {
		return "", err
	}
	locations, err := tableVersion(ctx, s.db, s.goqu, locationsTable)
	if err != nil {
		return "", err
	}
	return registry + "|" + locations, nil
}

func (s *ProviderSource) load(ctx context.Context, table string) ([]entities.RawProviderRecord, error) {
	cols := make([]interface{}, len(registryColumns))
	for i, c := range registryColumns {
		cols[i] = goqu.COALESCE(goqu.L("?::text", goqu.C(c)), "").As(c)
	}

	query, args, err := s.goqu.From(table).
		Select(cols...).
		Order(goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build provider query", err)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load "+table, err)
	}
	defer rows.Close()

	var records []entities.RawProviderRecord
	for rows.Next() {
		values := make(map[string]interface{}, len(registryColumns))
		if err := rows.MapScan(values); err != nil {
			return nil, apperrors.NewInternalError("failed to scan "+table, err)
		}
		rec := make(entities.RawProviderRecord, len(values))
		for k, v := range values {
			rec[k] = asString(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read "+table, err)
	}
	return records, nil
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return ""
	}
}
