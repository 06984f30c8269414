package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadGoldenCases_JSON(t *testing.T) {
	path := writeTempFile(t, "golden.json", `[
		{"id": "g1", "urgency": "T3", "specialty": "ortopedia", "expected_services": ["urgencias_ortopedista"], "difficulty": "easy"},
		{"id": "g2", "category": "salud_mental", "urgency": "5", "specialty": "psicologia", "expected_services": ["consulta_psicologo_y_terapia_psicologica"]}
	]`)

	cases, err := LoadGoldenCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "g1", cases[0].ID)
	assert.Equal(t, DifficultyEasy, cases[0].Difficulty)
	assert.Equal(t, "salud_mental", cases[1].Category)
	assert.NoError(t, ValidateGoldenCases(cases))
}

func TestLoadGoldenCases_YAML(t *testing.T) {
	path := writeTempFile(t, "golden.yaml", `
- id: g1
  urgency: T5
  specialty: urologia
  expected_services:
    - consulta_urologia
  difficulty: medium
`)

	cases, err := LoadGoldenCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, []string{"consulta_urologia"}, cases[0].ExpectedServices)
	assert.Equal(t, DifficultyMedium, cases[0].Difficulty)
}

func TestLoadGoldenCases_Errors(t *testing.T) {
	_, err := LoadGoldenCases("/nonexistent/golden.json")
	assert.Error(t, err)

	_, err = LoadGoldenCases(writeTempFile(t, "bad.json", `{not json`))
	assert.Error(t, err)
}

func TestValidateGoldenCases(t *testing.T) {
	valid := GoldenCase{ID: "g1", Urgency: "T1", Specialty: "x", ExpectedServices: []string{"urgencias_medico_general"}}

	tests := []struct {
		name    string
		cases   []GoldenCase
		wantErr string
	}{
		{"valid", []GoldenCase{valid}, ""},
		{"missing id", []GoldenCase{{Urgency: "T1", ExpectedServices: []string{"a"}}}, "missing id"},
		{"duplicate id", []GoldenCase{valid, valid}, "duplicate id"},
		{"bad urgency", []GoldenCase{{ID: "g", Urgency: "T7", ExpectedServices: []string{"a"}}}, "unknown triage level"},
		{"no expected services", []GoldenCase{{ID: "g", Urgency: "T2"}}, "expected_services is empty"},
		{"bad difficulty", []GoldenCase{{ID: "g", Urgency: "T2", ExpectedServices: []string{"a"}, Difficulty: "extreme"}}, "invalid difficulty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGoldenCases(tt.cases)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
