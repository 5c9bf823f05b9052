// Package billinginterval computes the recurring billing cycle dates of a
// subscription between a start date and an optional end date.
package billinginterval

import (
	"time"

	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/samber/lo"
)

// Detail holds the billing cycle dates of a single interval. All dates are
// calendar dates (midnight UTC, see types.NewDate).
type Detail struct {
	startDate       time.Time
	endDate         *time.Time
	targetDate      time.Time
	billingCycleDay int
	billingPeriod   types.BillingPeriod

	firstBillingCycleDate time.Time
}

// Params are the inputs of a billing interval
type Params struct {
	StartDate       time.Time
	EndDate         *time.Time
	TargetDate      time.Time
	BillingCycleDay int
	BillingPeriod   types.BillingPeriod
	BillingMode     types.BillingMode
}

// NewDetail computes the first billing cycle date of the interval
func NewDetail(params Params) (*Detail, error) {
	if err := params.BillingPeriod.Validate(); err != nil {
		return nil, err
	}
	if err := params.BillingMode.Validate(); err != nil {
		return nil, err
	}
	if params.BillingPeriod.IsMonthBased() && (params.BillingCycleDay < 1 || params.BillingCycleDay > 31) {
		return nil, ierr.NewError("invalid bill cycle day").
			WithHint("Bill cycle day must be between 1 and 31").
			WithReportableDetails(map[string]any{
				"bill_cycle_day": params.BillingCycleDay,
			}).
			Mark(ierr.ErrValidation)
	}

	d := &Detail{
		startDate:       types.TruncateToDate(params.StartDate),
		targetDate:      types.TruncateToDate(params.TargetDate),
		billingCycleDay: params.BillingCycleDay,
		billingPeriod:   params.BillingPeriod,
	}
	if params.EndDate != nil {
		d.endDate = lo.ToPtr(types.TruncateToDate(*params.EndDate))
	}
	d.firstBillingCycleDate = d.calculateFirstBillingCycleDate()
	return d, nil
}

// calculateFirstBillingCycleDate returns the first date on or after the start
// date that falls on the bill cycle day, stepping by whole billing periods.
func (d *Detail) calculateFirstBillingCycleDate() time.Time {
	if !d.billingPeriod.IsMonthBased() {
		return d.startDate
	}

	months := d.billingPeriod.NumberOfMonths()
	proposed := types.WithDayOfMonth(d.startDate, d.billingCycleDay)
	for proposed.Before(d.startDate) {
		proposed = d.alignToBillingCycleDay(types.AddClampedDate(proposed, 0, months, 0))
	}
	return proposed
}

func (d *Detail) alignToBillingCycleDay(date time.Time) time.Time {
	if !d.billingPeriod.IsMonthBased() {
		return date
	}
	return types.WithDayOfMonth(date, d.billingCycleDay)
}

// FutureBillingDateFor returns the cycle date n periods after the first one
func (d *Detail) FutureBillingDateFor(n int) time.Time {
	return d.alignToBillingCycleDay(types.AdvanceByPeriods(d.firstBillingCycleDate, d.billingPeriod, n))
}

// nextCycleDateAfter returns the first cycle date strictly after date
func (d *Detail) nextCycleDateAfter(date time.Time) time.Time {
	if days := d.billingPeriod.NumberOfDays(); days > 0 {
		if date.Before(d.firstBillingCycleDate) {
			return d.firstBillingCycleDate
		}
		elapsed := int(date.Sub(d.firstBillingCycleDate).Hours() / 24)
		return d.FutureBillingDateFor(elapsed/days + 1)
	}

	n := 0
	next := d.FutureBillingDateFor(n)
	for !next.After(date) {
		n++
		next = d.FutureBillingDateFor(n)
	}
	return next
}

func (d *Detail) capAtEndDate(date time.Time) time.Time {
	if d.endDate != nil && d.endDate.Before(date) {
		return *d.endDate
	}
	return date
}

// NextBillingCycleDate returns the first cycle date after the target date,
// or the end date when the interval ends before it
func (d *Detail) NextBillingCycleDate() time.Time {
	return d.capAtEndDate(d.nextCycleDateAfter(d.targetDate))
}
