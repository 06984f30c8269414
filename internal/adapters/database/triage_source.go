package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
)

const triageTable = "triage_rules"

type triageRow struct {
	Category  string `db:"category"`
	Symptom   string `db:"symptom"`
	Modifier  string `db:"modifier"`
	Modality  string `db:"modality"`
	Urgency   string `db:"urgency"`
	Specialty string `db:"specialty"`
}

// TriageSource reads the triage decision tree from PostgreSQL.
type TriageSource struct {
	db   *sqlx.DB
	goqu *goqu.Database
}

// NewTriageSource creates a triage source over db.
func NewTriageSource(db *sqlx.DB) providers.TriageSource {
	return &TriageSource{
		db:   db,
		goqu: goqu.New("postgres", db.DB),
	}
}

// LoadTriage implements providers.TriageSource. Rows come back in row_order,
// the order of the decision tree sheet they were imported from.
func (s *TriageSource) LoadTriage(ctx context.Context) ([]entities.RawTriageRecord, error) {
	query, args, err := s.goqu.From(triageTable).
		Select(
			goqu.COALESCE(goqu.C("category"), "").As("category"),
			goqu.COALESCE(goqu.C("symptom"), "").As("symptom"),
			goqu.COALESCE(goqu.C("modifier"), "").As("modifier"),
			goqu.COALESCE(goqu.C("modality"), "").As("modality"),
			goqu.COALESCE(goqu.C("urgency"), "").As("urgency"),
			goqu.COALESCE(goqu.C("specialty"), "").As("specialty"),
		).
		Order(goqu.C("row_order").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build triage query", err)
	}

	var rows []triageRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to load triage rules", err)
	}

	records := make([]entities.RawTriageRecord, len(rows))
	for i, r := range rows {
		records[i] = entities.RawTriageRecord(r)
	}
	return records, nil
}

// Version implements providers.TriageSource.
func (s *TriageSource) Version(ctx context.Context) (string, error) {
	return tableVersion(ctx, s.db, s.goqu, triageTable)
}

type versionRow struct {
	Count   int64  `db:"row_count"`
	Updated string `db:"last_update"`
}

// tableVersion derives a version marker from the row count and the latest
// updated_at of a table.
func tableVersion(ctx context.Context, db *sqlx.DB, g *goqu.Database, table string) (string, error) {
	query, args, err := g.From(table).
		Select(
			goqu.COUNT(goqu.Star()).As("row_count"),
			goqu.COALESCE(goqu.L("MAX(updated_at)::text"), "").As("last_update"),
		).
		ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build version query", err)
	}

	var v versionRow
	if err := db.GetContext(ctx, &v, query, args...); err != nil {
		return "", apperrors.NewInternalError(fmt.Sprintf("failed to read version of %s", table), err)
	}
	return fmt.Sprintf("%s:%d:%s", table, v.Count, v.Updated), nil
}
