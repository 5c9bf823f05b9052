package types

import (
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/samber/lo"
)

// BillingPeriod is the recurring period a usage section is billed on ex MONTHLY, ANNUAL
type BillingPeriod string

const (
	BILLING_PERIOD_DAILY     BillingPeriod = "DAILY"
	BILLING_PERIOD_WEEKLY    BillingPeriod = "WEEKLY"
	BILLING_PERIOD_MONTHLY   BillingPeriod = "MONTHLY"
	BILLING_PERIOD_QUARTER   BillingPeriod = "QUARTERLY"
	BILLING_PERIOD_HALF_YEAR BillingPeriod = "HALF_YEARLY"
	BILLING_PERIOD_ANNUAL    BillingPeriod = "ANNUAL"
)

func (b BillingPeriod) String() string {
	return string(b)
}

func (b BillingPeriod) Validate() error {
	allowed := []BillingPeriod{
		BILLING_PERIOD_DAILY,
		BILLING_PERIOD_WEEKLY,
		BILLING_PERIOD_MONTHLY,
		BILLING_PERIOD_QUARTER,
		BILLING_PERIOD_HALF_YEAR,
		BILLING_PERIOD_ANNUAL,
	}
	if !lo.Contains(allowed, b) {
		return ierr.NewError("invalid billing period").
			WithHint("Billing period must be one of the supported periods").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": b,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// NumberOfMonths returns the month count of a month based period, 0 for day based periods
func (b BillingPeriod) NumberOfMonths() int {
	switch b {
	case BILLING_PERIOD_MONTHLY:
		return 1
	case BILLING_PERIOD_QUARTER:
		return 3
	case BILLING_PERIOD_HALF_YEAR:
		return 6
	case BILLING_PERIOD_ANNUAL:
		return 12
	default:
		return 0
	}
}

// NumberOfDays returns the day count of a day based period, 0 for month based periods
func (b BillingPeriod) NumberOfDays() int {
	switch b {
	case BILLING_PERIOD_DAILY:
		return 1
	case BILLING_PERIOD_WEEKLY:
		return 7
	default:
		return 0
	}
}

// IsMonthBased reports whether the period is anchored on a bill cycle day of month
func (b BillingPeriod) IsMonthBased() bool {
	return b.NumberOfMonths() > 0
}

// BillingMode represents when a usage section is billed.
type BillingMode string

const (
	BillingModeInAdvance BillingMode = "in_advance"
	BillingModeInArrears BillingMode = "in_arrears"
)

func (b BillingMode) String() string {
	return string(b)
}

func (b BillingMode) Validate() error {
	allowed := []BillingMode{BillingModeInAdvance, BillingModeInArrears}
	if !lo.Contains(allowed, b) {
		return ierr.NewError("invalid billing mode").
			WithHint("Billing mode must be in_advance or in_arrears").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": b,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BillingEventType is the subscription transition that produced a billing event
type BillingEventType string

const (
	BillingEventTypeCreate BillingEventType = "CREATE"
	BillingEventTypeChange BillingEventType = "CHANGE"
	BillingEventTypePhase  BillingEventType = "PHASE"
	BillingEventTypeCancel BillingEventType = "CANCEL"
)

func (t BillingEventType) Validate() error {
	allowed := []BillingEventType{
		BillingEventTypeCreate,
		BillingEventTypeChange,
		BillingEventTypePhase,
		BillingEventTypeCancel,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid billing event type").
			WithHint("Unsupported billing event type").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
