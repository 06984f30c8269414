package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

// Header fragments identifying the triage columns. The first header
// containing a fragment wins.
var triageHeaderHints = []struct {
	hint     string
	required bool
}{
	{"categ", true},
	{"sintoma", true},
	{"modif", true},
	{"triage", true},
	{"modal", true},
	{"especial", false},
}

// FileTriageSource reads the triage decision tree from a spreadsheet whose
// first row is a header.
type FileTriageSource struct {
	path  string
	sheet string
}

// NewFileTriageSource creates a triage source for an .xlsx or .csv file.
func NewFileTriageSource(path, sheet string) providers.TriageSource {
	return &FileTriageSource{path: path, sheet: sheet}
}

// LoadTriage implements providers.TriageSource.
func (s *FileTriageSource) LoadTriage(ctx context.Context) ([]entities.RawTriageRecord, error) {
	rows, err := readTable(s.path, s.sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewDataError(1, "header", fmt.Sprintf("triage file %s is empty", s.path))
	}

	cols, err := locateTriageColumns(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]entities.RawTriageRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		records = append(records, entities.RawTriageRecord{
			Category:  cell(row, cols[0]),
			Symptom:   cell(row, cols[1]),
			Modifier:  cell(row, cols[2]),
			Urgency:   cell(row, cols[3]),
			Modality:  cell(row, cols[4]),
			Specialty: cell(row, cols[5]),
		})
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("path", s.path).
		Int("rows", len(records)).
		Msg("Triage rows loaded")
	return records, nil
}

// Version implements providers.TriageSource.
func (s *FileTriageSource) Version(context.Context) (string, error) {
	return fileVersion(s.path)
}

// locateTriageColumns maps each hint to a column index, -1 when an optional
// column is absent.
func locateTriageColumns(header []string) ([]int, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = utils.NormalizeColumnName(h)
	}

	cols := make([]int, len(triageHeaderHints))
	var missing []string
	for i, h := range triageHeaderHints {
		cols[i] = -1
		for j, name := range normalized {
			if strings.Contains(name, h.hint) {
				cols[i] = j
				break
			}
		}
		if cols[i] < 0 && h.required {
			missing = append(missing, h.hint)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewDataError(1, "header", fmt.Sprintf("triage columns not found: %s", strings.Join(missing, ", ")))
	}
	return cols, nil
}
