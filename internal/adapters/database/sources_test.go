package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestTriageSource_LoadTriage(t *testing.T) {
	db, mock := setupMockDB(t)
	rows := sqlmock.NewRows([]string{"category", "symptom", "modifier", "modality", "urgency", "specialty"}).
		AddRow("Trauma", "Fractura", "Expuesta", "Presencial", "T1", "Ortopedia").
		AddRow("Piel", "Erupcion", "Leve", "Telemedicina", "5", "")
	mock.ExpectQuery(`SELECT .* FROM "triage_rules" ORDER BY "row_order" ASC`).WillReturnRows(rows)

	records, err := NewTriageSource(db).LoadTriage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []entities.RawTriageRecord{
		{Category: "Trauma", Symptom: "Fractura", Modifier: "Expuesta", Modality: "Presencial", Urgency: "T1", Specialty: "Ortopedia"},
		{Category: "Piel", Symptom: "Erupcion", Modifier: "Leve", Modality: "Telemedicina", Urgency: "5"},
	}, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTriageSource_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM "triage_rules"`).WillReturnError(errors.New("connection reset"))

	_, err := NewTriageSource(db).LoadTriage(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestTriageSource_Version(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS "row_count".* FROM "triage_rules"`).
		WillReturnRows(sqlmock.NewRows([]string{"row_count", "last_update"}).AddRow(int64(42), "2026-10-01 08:00:00+00"))

	version, err := NewTriageSource(db).Version(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "triage_rules:42:2026-10-01 08:00:00+00", version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderSource_LoadProviders(t *testing.T) {
	db, mock := setupMockDB(t)

	registry := sqlmock.NewRows(registryColumns).
		AddRow("Clinica Norte", "Sede Norte", "Cundinamarca", "Bogota", "Calle 100", "4.7110", "-74.0721",
			"Urgencias Medico General", "1", "24 horas", "6011234567", nil)
	locations := sqlmock.NewRows(registryColumns).
		AddRow("Clinica Norte", "Sede Norte", "Cundinamarca", "Bogota", "Calle 100 # 15", []byte("4.7111"), "-74.0722",
			"Urgencias Medico General", "1", "", "", "")

	mock.ExpectQuery(`FROM "provider_registry" ORDER BY "id" ASC`).WillReturnRows(registry)
	mock.ExpectQuery(`FROM "provider_locations" ORDER BY "id" ASC`).WillReturnRows(locations)

	datasets, err := NewProviderSource(db).LoadProviders(context.Background())

	require.NoError(t, err)
	require.Len(t, datasets.Registry, 1)
	assert.Equal(t, "Clinica Norte", datasets.Registry[0]["prestador"])
	assert.Equal(t, "", datasets.Registry[0]["telefono_celular"])
	require.Len(t, datasets.Locations, 1)
	assert.Equal(t, "4.7111", datasets.Locations[0]["valor_latitud"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderSource_Version(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM "provider_registry"`).
		WillReturnRows(sqlmock.NewRows([]string{"row_count", "last_update"}).AddRow(int64(10), "a"))
	mock.ExpectQuery(`FROM "provider_locations"`).
		WillReturnRows(sqlmock.NewRows([]string{"row_count", "last_update"}).AddRow(int64(0), ""))

	version, err := NewProviderSource(db).Version(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "provider_registry:10:a|provider_locations:0:", version)
}
