package arrear

import (
	"testing"

	"github.com/flexprice/usagebilling/internal/domain/billing"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricingInterval(t *testing.T, u *catalog.Usage) *ContiguousInterval {
	return builtInterval(t, intervalFixture{
		usage:      u,
		targetDate: date(2024, 3, 15),
		events:     []*billing.Event{event(date(2024, 1, 1), 1, types.BillingEventTypeCreate)},
	}, false)
}

type wantDetail struct {
	tier     int
	unit     string
	price    float64
	quantity int64
	amount   float64
}

func assertDetails(t *testing.T, want []wantDetail, got []*invoice.UsageDetail) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.tier, got[i].Tier, "tier of detail %d", i)
		assert.Equal(t, w.unit, got[i].Unit(), "unit of detail %d", i)
		assert.True(t, decimal.NewFromFloat(w.price).Equal(got[i].TierPrice), "price of detail %d: %s", i, got[i].TierPrice)
		assert.Equal(t, w.quantity, got[i].Quantity, "quantity of detail %d", i)
		assert.True(t, decimal.NewFromFloat(w.amount).Equal(got[i].Amount), "amount of detail %d: %s", i, got[i].Amount)
	}
}

func TestComputeToBeBilledCapacity(t *testing.T) {
	tests := []struct {
		name  string
		units []usage.RolledUpUnit
		want  []wantDetail
	}{
		{
			name:  "first tier complies",
			units: []usage.RolledUpUnit{{UnitType: "A", Amount: 7}},
			want:  []wantDetail{{tier: 1, unit: "A", price: 5, quantity: 7, amount: 5}},
		},
		{
			name:  "limit is inclusive",
			units: []usage.RolledUpUnit{{UnitType: "A", Amount: 10}},
			want:  []wantDetail{{tier: 1, unit: "A", price: 5, quantity: 10, amount: 5}},
		},
		{
			name:  "unlimited tier catches overflow",
			units: []usage.RolledUpUnit{{UnitType: "A", Amount: 15}},
			want:  []wantDetail{{tier: 2, unit: "A", price: 2, quantity: 15, amount: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := pricingInterval(t, capacityUsage())
			got, err := c.computeToBeBilledCapacity(tt.units)
			require.NoError(t, err)
			assertDetails(t, tt.want, got)
		})
	}
}

func TestComputeToBeBilledCapacity_PriceOnLastUnit(t *testing.T) {
	u := &catalog.Usage{
		Name:          "capacity-multi",
		BillingMode:   types.BillingModeInArrears,
		UsageType:     types.USAGE_TYPE_CAPACITY,
		BillingPeriod: types.BILLING_PERIOD_MONTHLY,
		Tiers: []catalog.Tier{
			{Limits: []catalog.Limit{{Unit: "A", Max: 10}, {Unit: "B", Max: 100}}, RecurringPrice: usd(5)},
			{Limits: []catalog.Limit{{Unit: "A", Max: catalog.Unlimited}, {Unit: "B", Max: catalog.Unlimited}}, RecurringPrice: usd(20)},
		},
	}
	c := pricingInterval(t, u)

	got, err := c.computeToBeBilledCapacity([]usage.RolledUpUnit{
		{UnitType: "A", Amount: 7},
		{UnitType: "B", Amount: 150},
	})
	require.NoError(t, err)
	assertDetails(t, []wantDetail{
		{tier: 2, unit: "A", price: 20, quantity: 7, amount: 0},
		{tier: 2, unit: "B", price: 20, quantity: 150, amount: 20},
	}, got)
}

func TestComputeToBeBilledCapacity_CatalogErrors(t *testing.T) {
	t.Run("unit without limit", func(t *testing.T) {
		c := pricingInterval(t, capacityUsage())
		_, err := c.computeToBeBilledCapacity([]usage.RolledUpUnit{{UnitType: "C", Amount: 1}})
		require.Error(t, err)
		assert.True(t, ierr.IsCatalog(err))
	})

	t.Run("no complying tier", func(t *testing.T) {
		u := capacityUsage()
		u.Tiers = u.Tiers[:1]
		c := pricingInterval(t, u)
		_, err := c.computeToBeBilledCapacity([]usage.RolledUpUnit{{UnitType: "A", Amount: 15}})
		require.Error(t, err)
		assert.True(t, ierr.IsCatalog(err))
	})

	t.Run("missing price for currency", func(t *testing.T) {
		u := capacityUsage()
		u.Tiers[0].RecurringPrice = catalog.Prices{{Currency: "EUR", Value: decimal.NewFromInt(5)}}
		c := pricingInterval(t, u)
		_, err := c.computeToBeBilledCapacity([]usage.RolledUpUnit{{UnitType: "A", Amount: 1}})
		require.Error(t, err)
		assert.True(t, ierr.IsCatalog(err))
	})
}

func TestComputeToBeBilledConsumable(t *testing.T) {
	tests := []struct {
		name   string
		policy types.TierBlockPolicy
		amount int64
		want   []wantDetail
	}{
		{
			name:   "all tiers saturates the first tier before spilling",
			policy: types.TIER_BLOCK_POLICY_ALL_TIERS,
			amount: 25,
			want: []wantDetail{
				{tier: 1, unit: "A", price: 1, quantity: 2, amount: 2},
				{tier: 2, unit: "A", price: 2, quantity: 1, amount: 2},
			},
		},
		{
			name:   "all tiers within the first tier",
			policy: types.TIER_BLOCK_POLICY_ALL_TIERS,
			amount: 11,
			want:   []wantDetail{{tier: 1, unit: "A", price: 1, quantity: 2, amount: 2}},
		},
		{
			name:   "all tiers exact fill of the first tier",
			policy: types.TIER_BLOCK_POLICY_ALL_TIERS,
			amount: 20,
			want:   []wantDetail{{tier: 1, unit: "A", price: 1, quantity: 2, amount: 2}},
		},
		{
			name:   "all tiers zero usage",
			policy: types.TIER_BLOCK_POLICY_ALL_TIERS,
			amount: 0,
			want:   []wantDetail{{tier: 1, unit: "A", price: 1, quantity: 0, amount: 0}},
		},
		{
			name:   "top tier bills the whole quantity at the landing tier",
			policy: types.TIER_BLOCK_POLICY_TOP_TIER,
			amount: 25,
			want:   []wantDetail{{tier: 2, unit: "A", price: 2, quantity: 3, amount: 6}},
		},
		{
			name:   "top tier within the first tier",
			policy: types.TIER_BLOCK_POLICY_TOP_TIER,
			amount: 15,
			want:   []wantDetail{{tier: 1, unit: "A", price: 1, quantity: 2, amount: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := pricingInterval(t, consumableUsage(tt.policy))
			got, err := c.computeToBeBilledConsumable(usage.RolledUpUnit{UnitType: "A", Amount: tt.amount})
			require.NoError(t, err)
			assertDetails(t, tt.want, got)
		})
	}
}

func TestComputeToBeBilledConsumable_TopTierFallsBackToLastTier(t *testing.T) {
	u := consumableUsage(types.TIER_BLOCK_POLICY_TOP_TIER)
	u.Tiers[1].Blocks[0].Max = 1
	c := pricingInterval(t, u)

	got, err := c.computeToBeBilledConsumable(usage.RolledUpUnit{UnitType: "A", Amount: 45})
	require.NoError(t, err)
	assertDetails(t, []wantDetail{{tier: 2, unit: "A", price: 2, quantity: 5, amount: 10}}, got)
}

func TestComputeToBeBilledConsumable_Errors(t *testing.T) {
	t.Run("exhausted ladder", func(t *testing.T) {
		u := consumableUsage(types.TIER_BLOCK_POLICY_ALL_TIERS)
		u.Tiers[1].Blocks[0].Max = 1
		c := pricingInterval(t, u)
		_, err := c.computeToBeBilledConsumable(usage.RolledUpUnit{UnitType: "A", Amount: 45})
		require.Error(t, err)
		assert.True(t, ierr.IsCatalog(err))
	})

	t.Run("unknown block policy", func(t *testing.T) {
		c := pricingInterval(t, consumableUsage(types.TIER_BLOCK_POLICY_ALL_TIERS))
		c.usage = consumableUsage("BOTTOM_TIER")
		_, err := c.computeToBeBilledConsumable(usage.RolledUpUnit{UnitType: "A", Amount: 5})
		require.Error(t, err)
		assert.True(t, ierr.IsCatalog(err))
	})

	t.Run("unit without blocks", func(t *testing.T) {
		c := pricingInterval(t, consumableUsage(types.TIER_BLOCK_POLICY_ALL_TIERS))
		_, err := c.computeToBeBilledConsumable(usage.RolledUpUnit{UnitType: "Z", Amount: 5})
		require.Error(t, err)
		assert.True(t, ierr.IsCatalog(err))
	})
}
