package services

import (
	"context"
	"fmt"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	apperrors "github.com/jhonattanreales21/rutasalud/pkg/errors"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

// CaseTable is the deduplicated set of clinical cases of one triage snapshot.
type CaseTable struct {
	Cases []entities.ClinicalCase
	// Conflicts counts source rows that repeated an identity with a
	// different outcome. The first row always wins.
	Conflicts int
}

// BuildCaseTable normalizes raw triage rows and deduplicates them by
// (category, symptom, modifier), keeping the first row's urgency and
// specialty. A row missing an identity field or carrying an unknown triage
// level fails the whole build with a DATA error.
func BuildCaseTable(ctx context.Context, records []entities.RawTriageRecord) (*CaseTable, error) {
	logger := observability.LoggerFromContext(ctx)

	table := &CaseTable{Cases: make([]entities.ClinicalCase, 0, len(records))}
	seen := make(map[entities.CaseIdentity]int, len(records))

	for i, raw := range records {
		row := i + 1

		c := entities.ClinicalCase{
			Category:  utils.NormalizeIdentifier(raw.Category),
			Symptom:   utils.NormalizeIdentifier(raw.Symptom),
			Modifier:  utils.NormalizeIdentifier(raw.Modifier),
			Modality:  utils.NormalizeIdentifier(raw.Modality),
			Specialty: utils.NormalizeIdentifier(raw.Specialty),
		}

		switch {
		case c.Category == "":
			return nil, apperrors.NewDataError(row, "category", "missing category")
		case c.Symptom == "":
			return nil, apperrors.NewDataError(row, "symptom", "missing symptom")
		case c.Modifier == "":
			return nil, apperrors.NewDataError(row, "modifier", "missing modifier")
		}

		level, err := entities.ParseTriageLevel(raw.Urgency)
		if err != nil {
			return nil, apperrors.NewDataError(row, "urgency", err.Error())
		}
		c.Urgency = level

		id := c.Identity()
		if first, dup := seen[id]; dup {
			kept := table.Cases[first]
			if kept.Urgency != c.Urgency || kept.Specialty != c.Specialty {
				table.Conflicts++
				logger.Warn().
					Int("row", row).
					Str("category", id.Category).
					Str("symptom", id.Symptom).
					Str("modifier", id.Modifier).
					Str("kept", fmt.Sprintf("%s/%s", kept.Urgency, kept.Specialty)).
					Str("ignored", fmt.Sprintf("%s/%s", c.Urgency, c.Specialty)).
					Msg("Conflicting triage outcome for case; keeping first")
			}
			continue
		}

		seen[id] = len(table.Cases)
		table.Cases = append(table.Cases, c)
	}

	logger.Debug().
		Int("rows", len(records)).
		Int("cases", len(table.Cases)).
		Int("conflicts", table.Conflicts).
		Msg("Case table built")

	return table, nil
}
