package catalog

import (
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/samber/lo"
)

// Phase is a plan phase and the usage sections attached to it
type Phase struct {
	Name   string   `json:"name" validate:"required"`
	Usages []*Usage `json:"usages,omitempty" validate:"dive"`
}

// Plan groups the phases a subscription moves through
type Plan struct {
	Name   string   `json:"name" validate:"required"`
	Phases []*Phase `json:"phases" validate:"required,min=1,dive"`
}

// Catalog is a read-only set of plans. It is safe for concurrent reads.
type Catalog struct {
	Plans []*Plan `json:"plans" validate:"dive"`
}

// PhaseUsages returns the usage sections of a plan phase
func (c *Catalog) PhaseUsages(planName, phaseName string) ([]*Usage, error) {
	plan, ok := lo.Find(c.Plans, func(p *Plan) bool {
		return p.Name == planName
	})
	if !ok {
		return nil, ierr.NewErrorf("plan %s not found", planName).
			WithHint("Plan does not exist in the catalog").
			WithReportableDetails(map[string]any{"plan_name": planName}).
			Mark(ierr.ErrNotFound)
	}

	phase, ok := lo.Find(plan.Phases, func(p *Phase) bool {
		return p.Name == phaseName
	})
	if !ok {
		return nil, ierr.NewErrorf("phase %s not found in plan %s", phaseName, planName).
			WithHint("Plan phase does not exist in the catalog").
			WithReportableDetails(map[string]any{
				"plan_name":  planName,
				"phase_name": phaseName,
			}).
			Mark(ierr.ErrNotFound)
	}

	return phase.Usages, nil
}

// Validate validates every usage section of the catalog
func (c *Catalog) Validate() error {
	for _, plan := range c.Plans {
		for _, phase := range plan.Phases {
			for _, usage := range phase.Usages {
				if err := usage.Validate(); err != nil {
					return ierr.WithError(err).
						WithMessagef("plan %s phase %s", plan.Name, phase.Name).
						Mark(ierr.ErrValidation)
				}
			}
		}
	}
	return nil
}
