package testutil

import (
	"time"

	"github.com/flexprice/usagebilling/internal/domain/billing"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/shopspring/decimal"
)

const (
	TestAccountID = "acc_test"
	TestCurrency  = "USD"
)

func USD(v float64) catalog.Prices {
	return catalog.Prices{{Currency: TestCurrency, Value: decimal.NewFromFloat(v)}}
}

// ConsumableUsage bills unit in blocks of 10: two blocks at 1 then unlimited blocks at 2
func ConsumableUsage(name, unit string) *catalog.Usage {
	return &catalog.Usage{
		Name:            name,
		BillingMode:     types.BillingModeInArrears,
		UsageType:       types.USAGE_TYPE_CONSUMABLE,
		BillingPeriod:   types.BILLING_PERIOD_MONTHLY,
		TierBlockPolicy: types.TIER_BLOCK_POLICY_ALL_TIERS,
		Tiers: []catalog.Tier{
			{Blocks: []catalog.TieredBlock{{Unit: unit, Size: 10, Max: 2, Price: USD(1)}}},
			{Blocks: []catalog.TieredBlock{{Unit: unit, Size: 10, Max: catalog.Unlimited, Price: USD(2)}}},
		},
	}
}

// CapacityUsage costs 5 up to 10 units and 2 above
func CapacityUsage(name, unit string) *catalog.Usage {
	return &catalog.Usage{
		Name:          name,
		BillingMode:   types.BillingModeInArrears,
		UsageType:     types.USAGE_TYPE_CAPACITY,
		BillingPeriod: types.BILLING_PERIOD_MONTHLY,
		Tiers: []catalog.Tier{
			{Limits: []catalog.Limit{{Unit: unit, Max: 10}}, RecurringPrice: USD(5)},
			{Limits: []catalog.Limit{{Unit: unit, Max: catalog.Unlimited}}, RecurringPrice: USD(2)},
		},
	}
}

// Catalog has a "pro" plan with the "calls" and "seats" sections and a "basic"
// plan with "calls" only
func Catalog() *catalog.Catalog {
	return &catalog.Catalog{Plans: []*catalog.Plan{
		{
			Name: "pro",
			Phases: []*catalog.Phase{{
				Name: "evergreen",
				Usages: []*catalog.Usage{
					ConsumableUsage("calls", "minutes"),
					CapacityUsage("seats", "seats"),
				},
			}},
		},
		{
			Name: "basic",
			Phases: []*catalog.Phase{{
				Name:   "evergreen",
				Usages: []*catalog.Usage{ConsumableUsage("calls", "minutes")},
			}},
		},
	}}
}

func BillingEvent(subscriptionID string, effective time.Time, bcd int, planName string, eventType types.BillingEventType) *billing.Event {
	e := &billing.Event{
		ID:                types.GenerateUUID(),
		AccountID:         TestAccountID,
		BundleID:          "bundle_" + subscriptionID,
		SubscriptionID:    subscriptionID,
		EffectiveDate:     effective,
		BillCycleDayLocal: bcd,
		Currency:          TestCurrency,
		Type:              eventType,
	}
	if eventType != types.BillingEventTypeCancel {
		e.PlanName = planName
		e.PhaseName = "evergreen"
	}
	return e
}

func RawUsage(subscriptionID, unit string, date time.Time, amount int64) *usage.RawUsage {
	return &usage.RawUsage{
		SubscriptionID: subscriptionID,
		UnitType:       unit,
		Date:           date,
		Amount:         amount,
	}
}
