package arrear

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/usagebilling/internal/config"
	"github.com/flexprice/usagebilling/internal/domain/billing"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	"github.com/flexprice/usagebilling/internal/logger"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testSubscriptionID = "sub_1"
	testCurrency       = "USD"
)

func date(y int, m time.Month, d int) time.Time {
	return types.NewDate(y, m, d)
}

func testContext() context.Context {
	return context.WithValue(context.Background(), types.CtxTenantID, types.DefaultTenantID)
}

func testInvoiceConfig() config.InvoiceConfig {
	return config.InvoiceConfig{ItemResultBehaviorMode: types.USAGE_DETAIL_MODE_AGGREGATE}
}

func usd(v float64) catalog.Prices {
	return catalog.Prices{{Currency: testCurrency, Value: decimal.NewFromFloat(v)}}
}

// capacityUsage has tiers [{A <= 10} at 5, {A unlimited} at 2]
func capacityUsage() *catalog.Usage {
	return &catalog.Usage{
		Name:          "capacity-usage",
		BillingMode:   types.BillingModeInArrears,
		UsageType:     types.USAGE_TYPE_CAPACITY,
		BillingPeriod: types.BILLING_PERIOD_MONTHLY,
		Tiers: []catalog.Tier{
			{Limits: []catalog.Limit{{Unit: "A", Max: 10}}, RecurringPrice: usd(5)},
			{Limits: []catalog.Limit{{Unit: "A", Max: catalog.Unlimited}}, RecurringPrice: usd(2)},
		},
	}
}

// consumableUsage has the block ladder [{size 10, max 2, price 1}, {size 10, unlimited, price 2}] for unit A
func consumableUsage(policy types.TierBlockPolicy) *catalog.Usage {
	return &catalog.Usage{
		Name:            "consumable-usage",
		BillingMode:     types.BillingModeInArrears,
		UsageType:       types.USAGE_TYPE_CONSUMABLE,
		BillingPeriod:   types.BILLING_PERIOD_MONTHLY,
		TierBlockPolicy: policy,
		Tiers: []catalog.Tier{
			{Blocks: []catalog.TieredBlock{{Unit: "A", Size: 10, Max: 2, Price: usd(1)}}},
			{Blocks: []catalog.TieredBlock{{Unit: "A", Size: 10, Max: catalog.Unlimited, Price: usd(2)}}},
		},
	}
}

func event(effective time.Time, bcd int, eventType types.BillingEventType) *billing.Event {
	return &billing.Event{
		AccountID:         "acc_1",
		BundleID:          "bundle_1",
		SubscriptionID:    testSubscriptionID,
		EffectiveDate:     effective,
		BillCycleDayLocal: bcd,
		PlanName:          "pro",
		PhaseName:         "evergreen",
		Currency:          testCurrency,
		Type:              eventType,
	}
}

func raw(d time.Time, unit string, amount int64) *usage.RawUsage {
	return &usage.RawUsage{SubscriptionID: testSubscriptionID, UnitType: unit, Date: d, Amount: amount}
}

type intervalFixture struct {
	usage             *catalog.Usage
	rawUsage          []*usage.RawUsage
	targetDate        time.Time
	rawUsageStartDate time.Time
	mode              types.UsageDetailMode
	events            []*billing.Event
}

func newInterval(t *testing.T, f intervalFixture) *ContiguousInterval {
	t.Helper()
	mode := f.mode
	if mode == "" {
		mode = types.USAGE_DETAIL_MODE_AGGREGATE
	}
	rawStart := f.rawUsageStartDate
	if rawStart.IsZero() && len(f.events) > 0 {
		rawStart = types.ToLocalDate(f.events[0].EffectiveDate, time.UTC)
	}

	c, err := NewContiguousInterval(Params{
		Usage:             f.usage,
		AccountID:         "acc_1",
		InvoiceID:         "inv_1",
		RawUsage:          f.rawUsage,
		TargetDate:        f.targetDate,
		RawUsageStartDate: rawStart,
		Location:          time.UTC,
		Config:            config.InvoiceConfig{ItemResultBehaviorMode: mode},
		Logger:            logger.NewNopLogger(),
	})
	require.NoError(t, err)
	for _, e := range f.events {
		require.NoError(t, c.AddBillingEvent(e))
	}
	return c
}

func builtInterval(t *testing.T, f intervalFixture, closed bool) *ContiguousInterval {
	t.Helper()
	c := newInterval(t, f)
	require.NoError(t, c.Build(closed))
	return c
}

func pricedItems(items []*invoice.Item) []*invoice.Item {
	out := make([]*invoice.Item, 0)
	for _, item := range items {
		if !item.IsMarker() {
			out = append(out, item)
		}
	}
	return out
}

func sumAmounts(items []*invoice.Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
