// Package arrear computes the usage invoice items of a usage section billed
// in arrear over a contiguous run of billing events of one subscription.
//
// A ContiguousInterval has two phases. Billing events are appended first,
// then Build freezes the interval and computes its transition dates. Only a
// built interval can roll up usage and compute items.
package arrear

import (
	"context"
	"time"

	"github.com/flexprice/usagebilling/internal/domain/billing"
	"github.com/flexprice/usagebilling/internal/domain/billinginterval"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/logger"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/samber/lo"
)

// InvoiceConfig exposes the invoicing settings the computation depends on
type InvoiceConfig interface {
	GetItemResultBehaviorMode(ctx context.Context) types.UsageDetailMode
}

// Params are the inputs shared by every computation of an interval
type Params struct {
	Usage     *catalog.Usage
	AccountID string
	InvoiceID string

	// RawUsage is the usage of the subscription ordered by date
	RawUsage []*usage.RawUsage

	// TargetDate is the local date the interval is evaluated at
	TargetDate time.Time

	// RawUsageStartDate is the earliest local date raw usage was loaded from
	RawUsageStartDate time.Time

	// Location is the account timezone used to read billing event dates
	Location *time.Location

	Config InvoiceConfig
	Logger *logger.Logger
}

// ContiguousInterval owns one subscription and usage section pairing
type ContiguousInterval struct {
	usage             *catalog.Usage
	unitTypes         []string
	accountID         string
	invoiceID         string
	rawUsage          []*usage.RawUsage
	targetDate        time.Time
	rawUsageStartDate time.Time
	location          *time.Location
	config            InvoiceConfig
	log               *logger.Logger

	billingEvents   []*billing.Event
	transitionDates []time.Time
	built           bool
}

// NewContiguousInterval creates an interval accepting billing events
func NewContiguousInterval(params Params) (*ContiguousInterval, error) {
	if err := params.Usage.Validate(); err != nil {
		return nil, err
	}
	if !params.Usage.IsInArrear() {
		return nil, ierr.NewErrorf("usage %s is not billed in arrear", params.Usage.Name).
			WithHint("Only in arrear usage sections can be computed").
			WithReportableDetails(map[string]any{
				"usage_name":   params.Usage.Name,
				"billing_mode": params.Usage.BillingMode,
			}).
			Mark(ierr.ErrValidation)
	}
	if params.Config == nil {
		return nil, ierr.NewError("invoice config is required").
			Mark(ierr.ErrValidation)
	}

	log := params.Logger
	if log == nil {
		log = logger.L
	}
	location := params.Location
	if location == nil {
		location = time.UTC
	}

	return &ContiguousInterval{
		usage:             params.Usage,
		unitTypes:         params.Usage.UnitTypes(),
		accountID:         params.AccountID,
		invoiceID:         params.InvoiceID,
		rawUsage:          params.RawUsage,
		targetDate:        types.TruncateToDate(params.TargetDate),
		rawUsageStartDate: types.TruncateToDate(params.RawUsageStartDate),
		location:          location,
		config:            params.Config,
		log:               log,
	}, nil
}

// AddBillingEvent appends an event to the interval. Events must be added in chronological order.
func (c *ContiguousInterval) AddBillingEvent(event *billing.Event) error {
	if c.built {
		return ierr.WithError(ErrAlreadyBuilt).
			WithHint("Billing events cannot be added once the interval is built").
			WithReportableDetails(map[string]any{
				"usage_name": c.usage.Name,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	c.billingEvents = append(c.billingEvents, event)
	return nil
}

// Build computes the transition dates of the interval. A closed interval ends
// on its last billing event, an open one on the target date.
func (c *ContiguousInterval) Build(closed bool) error {
	if c.built {
		return ierr.WithError(ErrAlreadyBuilt).
			WithHint("The interval can only be built once").
			Mark(ierr.ErrInvalidOperation)
	}
	required := 1
	if closed {
		required = 2
	}
	if len(c.billingEvents) < required {
		return ierr.WithError(ErrNotEnoughBillingEvents).
			WithHintf("Building the interval requires at least %d billing events", required).
			WithReportableDetails(map[string]any{
				"usage_name": c.usage.Name,
				"closed":     closed,
				"events":     len(c.billingEvents),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	startDate := c.billingEvents[0].LocalDate(c.location)
	if c.targetDate.Before(startDate) {
		c.built = true
		return nil
	}
	endDate := c.targetDate
	if closed {
		endDate = c.billingEvents[len(c.billingEvents)-1].LocalDate(c.location)
	}

	bid, err := billinginterval.NewDetail(billinginterval.Params{
		StartDate:       startDate,
		EndDate:         &endDate,
		TargetDate:      c.targetDate,
		BillingCycleDay: c.BillCycleDay(),
		BillingPeriod:   c.usage.BillingPeriod,
		BillingMode:     c.usage.BillingMode,
	})
	if err != nil {
		return err
	}

	transitions := make([]time.Time, 0)
	if !startDate.Before(c.rawUsageStartDate) {
		transitions = append(transitions, startDate)
	}
	for n := 0; ; n++ {
		next := bid.FutureBillingDateFor(n)
		if next.After(endDate) {
			break
		}
		if next.After(startDate) && !next.Before(c.rawUsageStartDate) {
			transitions = append(transitions, next)
		}
	}
	if closed && len(transitions) > 0 && endDate.After(transitions[len(transitions)-1]) {
		transitions = append(transitions, endDate)
	}

	c.transitionDates = transitions
	c.built = true

	c.log.Debugw("built contiguous usage interval",
		"usage_name", c.usage.Name,
		"subscription_id", c.SubscriptionID(),
		"closed", closed,
		"start_date", startDate,
		"end_date", endDate,
		"transitions", len(transitions))
	return nil
}

func (c *ContiguousInterval) checkBuilt() error {
	if !c.built {
		return ierr.WithError(ErrNotBuilt).
			WithHint("The interval must be built before computing usage").
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

// IsBuilt reports whether Build succeeded
func (c *ContiguousInterval) IsBuilt() bool {
	return c.built
}

// TransitionDates returns a copy of the transition dates
func (c *ContiguousInterval) TransitionDates() ([]time.Time, error) {
	if err := c.checkBuilt(); err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(c.transitionDates))
	copy(dates, c.transitionDates)
	return dates, nil
}

// BillingEvents returns the events of the interval
func (c *ContiguousInterval) BillingEvents() []*billing.Event {
	return c.billingEvents
}

// Usage returns the usage section of the interval
func (c *ContiguousInterval) Usage() *catalog.Usage {
	return c.usage
}

func (c *ContiguousInterval) firstEvent() *billing.Event {
	if len(c.billingEvents) == 0 {
		return &billing.Event{}
	}
	return c.billingEvents[0]
}

// BillCycleDay returns the bill cycle day of the first billing event
func (c *ContiguousInterval) BillCycleDay() int {
	return c.firstEvent().BillCycleDayLocal
}

// SubscriptionID returns the subscription of the interval
func (c *ContiguousInterval) SubscriptionID() string {
	return c.firstEvent().SubscriptionID
}

// BundleID returns the bundle of the subscription
func (c *ContiguousInterval) BundleID() string {
	return c.firstEvent().BundleID
}

// PlanName returns the plan of the first billing event
func (c *ContiguousInterval) PlanName() string {
	return c.firstEvent().PlanName
}

// PhaseName returns the phase of the first billing event
func (c *ContiguousInterval) PhaseName() string {
	return c.firstEvent().PhaseName
}

// Currency returns the currency of the first billing event
func (c *ContiguousInterval) Currency() string {
	return c.firstEvent().Currency
}

func (c *ContiguousInterval) isUnitType(unit string) bool {
	return lo.Contains(c.unitTypes, unit)
}
