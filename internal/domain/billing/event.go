package billing

import (
	"sort"
	"time"

	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
)

// Event is a subscription transition relevant to billing. Events of a
// subscription are ordered by EffectiveDate and never mutated.
type Event struct {
	ID                string                 `json:"id,omitempty"`
	AccountID         string                 `json:"account_id" validate:"required"`
	BundleID          string                 `json:"bundle_id,omitempty"`
	SubscriptionID    string                 `json:"subscription_id" validate:"required"`
	EffectiveDate     time.Time              `json:"effective_date" validate:"required"`
	BillCycleDayLocal int                    `json:"bill_cycle_day_local" validate:"gte=1,lte=31"`
	PlanName          string                 `json:"plan_name"`
	PhaseName         string                 `json:"phase_name"`
	Currency          string                 `json:"currency" validate:"required,len=3"`
	Type              types.BillingEventType `json:"type" validate:"required"`
}

// IsCancel reports whether the event ends the subscription
func (e *Event) IsCancel() bool {
	return e.Type == types.BillingEventTypeCancel
}

// LocalDate returns the effective date as observed in the account timezone
func (e *Event) LocalDate(loc *time.Location) time.Time {
	return types.ToLocalDate(e.EffectiveDate, loc)
}

// Validate validates the event
func (e *Event) Validate() error {
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if !e.IsCancel() && (e.PlanName == "" || e.PhaseName == "") {
		return ierr.NewError("billing event validation failed").
			WithHint("plan_name and phase_name are required").
			WithReportableDetails(map[string]any{
				"subscription_id": e.SubscriptionID,
				"type":            e.Type,
			}).
			Mark(ierr.ErrValidation)
	}
	if e.BillCycleDayLocal < 1 || e.BillCycleDayLocal > 31 {
		return ierr.NewError("billing event validation failed").
			WithHint("bill_cycle_day_local must be between 1 and 31").
			WithReportableDetails(map[string]any{
				"bill_cycle_day_local": e.BillCycleDayLocal,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SortEvents orders events chronologically keeping the input order of simultaneous events
func SortEvents(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EffectiveDate.Before(events[j].EffectiveDate)
	})
}
