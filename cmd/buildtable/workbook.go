package main

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
)

const tableSheet = "correspondencia"

var workbookHeader = []interface{}{
	"nivel_triage", "especialidad", "categoria", "metodo", "coincide_en", "servicios", "puntajes",
}

// writeWorkbook stores one row per entry, category entries after the
// (urgency, specialty) entries.
func writeWorkbook(path string, table *entities.CorrespondenceTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", tableSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(tableSheet, "A1", &workbookHeader); err != nil {
		return err
	}

	rows := append(append([]entities.CorrespondenceEntry{}, table.Entries...), table.CategoryEntries...)
	for i, e := range rows {
		scores := make([]string, len(e.Candidates))
		for j, c := range e.Candidates {
			scores[j] = fmt.Sprintf("%.3f", c.Score)
		}
		category := ""
		if e.MatchedOn == entities.MatchedOnCategory {
			category = e.Case.Category
		}
		row := []interface{}{
			e.Urgency.String(),
			e.Specialty,
			category,
			string(e.Method),
			e.MatchedOn,
			strings.Join(e.Services(), ", "),
			strings.Join(scores, ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(tableSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
