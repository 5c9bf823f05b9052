package catalog

import "context"

// Repository resolves the usage sections referenced by billing events
type Repository interface {
	// GetPhaseUsages returns every usage section of the given plan phase
	GetPhaseUsages(ctx context.Context, planName, phaseName string) ([]*Usage, error)
}
