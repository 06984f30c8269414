package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
)

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &values))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestFileTriageSource_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage.xlsx")
	writeWorkbook(t, path, [][]string{
		{"ID", "Categoría", "Síntoma", "Modificador", "Nivel de Triage", "Modalidad", "Especialidad"},
		{"1", "Trauma", "Fractura", "Expuesta", "T1", "Presencial", "Ortopedia"},
		{"", "", "", "", "", "", ""},
		{"2", "Piel", "Erupción", "Leve", "5", "Telemedicina"},
	})

	src := NewFileTriageSource(path, "")
	records, err := src.LoadTriage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []entities.RawTriageRecord{
		{Category: "Trauma", Symptom: "Fractura", Modifier: "Expuesta", Urgency: "T1", Modality: "Presencial", Specialty: "Ortopedia"},
		{Category: "Piel", Symptom: "Erupción", Modifier: "Leve", Urgency: "5", Modality: "Telemedicina", Specialty: ""},
	}, records)

	version, err := src.Version(context.Background())
	require.NoError(t, err)
	assert.Contains(t, version, "triage.xlsx@")
}

func TestFileTriageSource_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage.csv")
	require.NoError(t, os.WriteFile(path, []byte("categoria;sintoma;especialidad\nTrauma;Fractura;Ortopedia\n"), 0o600))

	_, err := NewFileTriageSource(path, "").LoadTriage(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeData))
	assert.Contains(t, err.Error(), "modif")
	assert.Contains(t, err.Error(), "triage")
}

func TestFileProviderSource_CSVAndWorkbook(t *testing.T) {
	dir := t.TempDir()
	registry := filepath.Join(dir, "prestadores.csv")
	require.NoError(t, os.WriteFile(registry, []byte(
		"\xef\xbb\xbfPrestador;Departamento;Municipio;Valor Latitud;Valor Longitud;Concepto Factura;Direccionamiento\n"+
			"Clinica Norte;Cundinamarca;Bogota;4,7110;-74,0721;Urgencias Medico General;1\n"+
			";;;;;;\n"+
			"Hospital Central;Cundinamarca;Bogota;4.6097;-74.0817;Urgencias Medico General;2\n",
	), 0o600))

	locations := filepath.Join(dir, "prestadores_urg.xlsx")
	writeWorkbook(t, locations, [][]string{
		{"Prestador", "Concepto Factura", "Valor Latitud", "Valor Longitud"},
		{"Clinica Norte", "Urgencias Medico General", "4.7111", "-74.0722"},
	})

	src := NewFileProviderSource(registry, locations)
	datasets, err := src.LoadProviders(context.Background())
	require.NoError(t, err)

	require.Len(t, datasets.Registry, 2)
	assert.Equal(t, "Clinica Norte", datasets.Registry[0]["Prestador"])
	assert.Equal(t, "4,7110", datasets.Registry[0]["Valor Latitud"])
	assert.Equal(t, "2", datasets.Registry[1]["Direccionamiento"])

	require.Len(t, datasets.Locations, 1)
	assert.Equal(t, "-74.0722", datasets.Locations[0]["Valor Longitud"])
}

func TestFileProviderSource_VersionChangesWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prestadores.csv")
	require.NoError(t, os.WriteFile(path, []byte("Prestador\nA\n"), 0o600))

	src := NewFileProviderSource(path, "")
	before, err := src.Version(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Prestador\nA\nB\n"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	after, err := src.Version(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestReadTable_UnsupportedFormat(t *testing.T) {
	_, err := readTable("providers.json", "")
	assert.Error(t, err)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\n1;2;3")))
}
