package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
)

func TestBuildCaseTable_DeduplicatesFirstWins(t *testing.T) {
	records := []entities.RawTriageRecord{
		{Category: "Trauma", Symptom: "Fractura", Modifier: "Expuesta", Modality: "Presencial", Urgency: "T1", Specialty: "Ortopedia"},
		{Category: "trauma", Symptom: "fractura", Modifier: "expuesta", Urgency: "T3", Specialty: "Medicina General"},
		{Category: "Piel", Symptom: "Erupción", Modifier: "Leve", Urgency: "5", Specialty: "Dermatología"},
		{Category: "Piel", Symptom: "Erupción", Modifier: "Leve", Urgency: "T5", Specialty: "Dermatología"},
	}

	table, err := BuildCaseTable(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, table.Cases, 2)
	assert.Equal(t, 1, table.Conflicts)

	assert.Equal(t, entities.ClinicalCase{
		Category:  "trauma",
		Symptom:   "fractura",
		Modifier:  "expuesta",
		Modality:  "presencial",
		Urgency:   entities.TriageT1,
		Specialty: "ortopedia",
	}, table.Cases[0])
	assert.Equal(t, "erupcion", table.Cases[1].Symptom)
	assert.Equal(t, "dermatologia", table.Cases[1].Specialty)
	assert.Equal(t, entities.TriageT5, table.Cases[1].Urgency)
}

func TestBuildCaseTable_MissingIdentityField(t *testing.T) {
	testCases := []struct {
		name   string
		record entities.RawTriageRecord
		field  string
	}{
		{"category", entities.RawTriageRecord{Symptom: "s", Modifier: "m", Urgency: "T2"}, "category"},
		{"symptom", entities.RawTriageRecord{Category: "c", Symptom: "  ", Modifier: "m", Urgency: "T2"}, "symptom"},
		{"modifier", entities.RawTriageRecord{Category: "c", Symptom: "s", Urgency: "T2"}, "modifier"},
		{"urgency", entities.RawTriageRecord{Category: "c", Symptom: "s", Modifier: "m", Urgency: "alta"}, "urgency"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := []entities.RawTriageRecord{
				{Category: "ok", Symptom: "ok", Modifier: "ok", Urgency: "T4", Specialty: "x"},
				tc.record,
			}
			_, err := BuildCaseTable(context.Background(), records)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrorTypeData, appErr.Type)
			assert.Equal(t, 2, appErr.Row)
			assert.Equal(t, tc.field, appErr.Field)
		})
	}
}

func TestBuildCaseTable_EmptySpecialtyAllowed(t *testing.T) {
	table, err := BuildCaseTable(context.Background(), []entities.RawTriageRecord{
		{Category: "general", Symptom: "fiebre", Modifier: "alta", Urgency: "T3"},
	})
	require.NoError(t, err)
	require.Len(t, table.Cases, 1)
	assert.Equal(t, "", table.Cases[0].Specialty)
}
