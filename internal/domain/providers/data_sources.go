package providers

import (
	"context"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
)

// TriageSource yields the raw triage decision-tree rows.
type TriageSource interface {
	// LoadTriage returns the rows in source order.
	LoadTriage(ctx context.Context) ([]entities.RawTriageRecord, error)

	// Version returns a marker that changes whenever the rows change.
	Version(ctx context.Context) (string, error)
}

// ProviderDatasets holds the two raw provider registries.
type ProviderDatasets struct {
	// Registry is the primary provider registry.
	Registry []entities.RawProviderRecord
	// Locations is the supplemental coordinate registry; it may be empty.
	Locations []entities.RawProviderRecord
}

// ProviderSource yields the raw provider registries.
type ProviderSource interface {
	LoadProviders(ctx context.Context) (*ProviderDatasets, error)
	Version(ctx context.Context) (string, error)
}
