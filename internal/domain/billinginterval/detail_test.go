package billinginterval

import (
	"testing"
	"time"

	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return types.NewDate(y, m, d)
}

func mustDetail(t *testing.T, params Params) *Detail {
	t.Helper()
	d, err := NewDetail(params)
	require.NoError(t, err)
	return d
}

func TestFirstBillingCycleDate(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		bcd    int
		period types.BillingPeriod
		want   time.Time
	}{
		{
			name:   "monthly bcd after start day",
			start:  date(2024, 1, 10),
			bcd:    15,
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 1, 15),
		},
		{
			name:   "monthly bcd before start day moves to next month",
			start:  date(2024, 1, 20),
			bcd:    15,
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 2, 15),
		},
		{
			name:   "monthly bcd on start day",
			start:  date(2024, 1, 15),
			bcd:    15,
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 1, 15),
		},
		{
			name:   "bcd clamped to end of short month",
			start:  date(2024, 2, 10),
			bcd:    31,
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 2, 29),
		},
		{
			name:   "annual steps by a whole year",
			start:  date(2024, 3, 20),
			bcd:    15,
			period: types.BILLING_PERIOD_ANNUAL,
			want:   date(2025, 3, 15),
		},
		{
			name:   "weekly starts on the start date",
			start:  date(2024, 3, 20),
			bcd:    15,
			period: types.BILLING_PERIOD_WEEKLY,
			want:   date(2024, 3, 20),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDetail(t, Params{
				StartDate:       tt.start,
				TargetDate:      tt.start,
				BillingCycleDay: tt.bcd,
				BillingPeriod:   tt.period,
				BillingMode:     types.BillingModeInArrears,
			})
			assert.Equal(t, tt.want, d.FutureBillingDateFor(0))
		})
	}
}

func TestFutureBillingDateFor_RealignsAfterShortMonths(t *testing.T) {
	d := mustDetail(t, Params{
		StartDate:       date(2024, 1, 31),
		TargetDate:      date(2024, 6, 1),
		BillingCycleDay: 31,
		BillingPeriod:   types.BILLING_PERIOD_MONTHLY,
		BillingMode:     types.BillingModeInArrears,
	})

	assert.Equal(t, date(2024, 1, 31), d.FutureBillingDateFor(0))
	assert.Equal(t, date(2024, 2, 29), d.FutureBillingDateFor(1))
	assert.Equal(t, date(2024, 3, 31), d.FutureBillingDateFor(2))
	assert.Equal(t, date(2024, 4, 30), d.FutureBillingDateFor(3))
}

func TestFutureBillingDateFor_Quarterly(t *testing.T) {
	d := mustDetail(t, Params{
		StartDate:       date(2024, 1, 1),
		TargetDate:      date(2024, 1, 1),
		BillingCycleDay: 1,
		BillingPeriod:   types.BILLING_PERIOD_QUARTER,
		BillingMode:     types.BillingModeInArrears,
	})

	assert.Equal(t, date(2024, 4, 1), d.FutureBillingDateFor(1))
	assert.Equal(t, date(2025, 1, 1), d.FutureBillingDateFor(4))
}

func TestNextBillingCycleDate(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		end    *time.Time
		target time.Time
		period types.BillingPeriod
		want   time.Time
	}{
		{
			name:   "open interval mid period",
			start:  date(2024, 1, 1),
			target: date(2024, 2, 10),
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 3, 1),
		},
		{
			name:   "target on a cycle date moves to the next one",
			start:  date(2024, 1, 1),
			target: date(2024, 2, 1),
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 3, 1),
		},
		{
			name:   "target before start yields the first cycle date",
			start:  date(2024, 1, 1),
			target: date(2023, 12, 1),
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 1, 1),
		},
		{
			name:   "closed interval ending before the next cycle date",
			start:  date(2024, 1, 1),
			end:    lo.ToPtr(date(2024, 2, 15)),
			target: date(2024, 4, 10),
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 2, 15),
		},
		{
			name:   "closed interval ending after the next cycle date",
			start:  date(2024, 1, 1),
			end:    lo.ToPtr(date(2024, 6, 15)),
			target: date(2024, 4, 10),
			period: types.BILLING_PERIOD_MONTHLY,
			want:   date(2024, 5, 1),
		},
		{
			name:   "weekly",
			start:  date(2024, 1, 1),
			target: date(2024, 1, 8),
			period: types.BILLING_PERIOD_WEEKLY,
			want:   date(2024, 1, 15),
		},
		{
			name:   "daily",
			start:  date(2024, 1, 1),
			target: date(2024, 1, 8),
			period: types.BILLING_PERIOD_DAILY,
			want:   date(2024, 1, 9),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDetail(t, Params{
				StartDate:       tt.start,
				EndDate:         tt.end,
				TargetDate:      tt.target,
				BillingCycleDay: 1,
				BillingPeriod:   tt.period,
				BillingMode:     types.BillingModeInArrears,
			})
			assert.Equal(t, tt.want, d.NextBillingCycleDate())
		})
	}
}

func TestNextBillingCycleDate_ClosedIntervalCappedAtEndDate(t *testing.T) {
	// the cycle date after the transition would be Feb 28, the interval ends on Jan 29
	d := mustDetail(t, Params{
		StartDate:       date(2024, 1, 1),
		EndDate:         lo.ToPtr(date(2024, 1, 29)),
		TargetDate:      date(2024, 2, 10),
		BillingCycleDay: 28,
		BillingPeriod:   types.BILLING_PERIOD_MONTHLY,
		BillingMode:     types.BillingModeInArrears,
	})
	assert.Equal(t, date(2024, 1, 29), d.NextBillingCycleDate())
}

func TestNewDetail_Invalid(t *testing.T) {
	_, err := NewDetail(Params{
		StartDate:       date(2024, 1, 1),
		TargetDate:      date(2024, 1, 1),
		BillingCycleDay: 1,
		BillingPeriod:   "FORTNIGHTLY",
		BillingMode:     types.BillingModeInArrears,
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	_, err = NewDetail(Params{
		StartDate:       date(2024, 1, 1),
		TargetDate:      date(2024, 1, 1),
		BillingCycleDay: 0,
		BillingPeriod:   types.BILLING_PERIOD_MONTHLY,
		BillingMode:     types.BillingModeInArrears,
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
