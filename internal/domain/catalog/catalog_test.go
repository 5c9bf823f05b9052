package catalog

import (
	"testing"

	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUsage() *Usage {
	price := Prices{{Currency: "USD", Value: decimal.NewFromInt(1)}}
	return &Usage{
		Name:            "calls",
		BillingMode:     types.BillingModeInArrears,
		UsageType:       types.USAGE_TYPE_CONSUMABLE,
		BillingPeriod:   types.BILLING_PERIOD_MONTHLY,
		TierBlockPolicy: types.TIER_BLOCK_POLICY_ALL_TIERS,
		Tiers: []Tier{
			{Blocks: []TieredBlock{{Unit: "minutes", Size: 10, Max: 5, Price: price}, {Unit: "sms", Size: 100, Max: 1, Price: price}}},
			{Blocks: []TieredBlock{{Unit: "minutes", Size: 10, Max: Unlimited, Price: price}}},
		},
	}
}

func TestPrices_PriceFor(t *testing.T) {
	prices := Prices{
		{Currency: "USD", Value: decimal.NewFromFloat(1.5)},
		{Currency: "EUR", Value: decimal.NewFromFloat(1.2)},
	}

	got, err := prices.PriceFor("eur")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(1.2).Equal(got))

	_, err = prices.PriceFor("GBP")
	require.Error(t, err)
	assert.True(t, ierr.IsCatalog(err))
}

func TestLimit_Allows(t *testing.T) {
	assert.True(t, Limit{Unit: "A", Max: 10}.Allows(10))
	assert.False(t, Limit{Unit: "A", Max: 10}.Allows(11))
	assert.True(t, Limit{Unit: "A", Max: Unlimited}.Allows(1_000_000))
}

func TestUsage_Lookups(t *testing.T) {
	u := sampleUsage()

	assert.Equal(t, []string{"minutes", "sms"}, u.UnitTypes())
	assert.Len(t, u.TieredBlocksFor("minutes"), 2)
	assert.Len(t, u.TieredBlocksFor("sms"), 1)
	assert.Empty(t, u.TieredBlocksFor("data"))
	assert.Nil(t, u.CapacityTiers())
	assert.True(t, u.IsInArrear())
	require.NoError(t, u.Validate())
}

func TestUsage_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *Usage)
	}{
		{name: "missing name", mutate: func(u *Usage) { u.Name = " " }},
		{name: "bad billing mode", mutate: func(u *Usage) { u.BillingMode = "later" }},
		{name: "bad period", mutate: func(u *Usage) { u.BillingPeriod = "FORTNIGHTLY" }},
		{name: "no tiers", mutate: func(u *Usage) { u.Tiers = nil }},
		{name: "bad policy", mutate: func(u *Usage) { u.TierBlockPolicy = "BOTTOM_TIER" }},
		{name: "zero block size", mutate: func(u *Usage) { u.Tiers[0].Blocks[0].Size = 0 }},
		{name: "capacity tier without limits", mutate: func(u *Usage) { u.UsageType = types.USAGE_TYPE_CAPACITY }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := sampleUsage()
			tt.mutate(u)
			err := u.Validate()
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}

func TestCatalog_PhaseUsages(t *testing.T) {
	c := &Catalog{Plans: []*Plan{{
		Name:   "pro",
		Phases: []*Phase{{Name: "evergreen", Usages: []*Usage{sampleUsage()}}},
	}}}
	require.NoError(t, c.Validate())

	usages, err := c.PhaseUsages("pro", "evergreen")
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, "calls", usages[0].Name)

	_, err = c.PhaseUsages("basic", "evergreen")
	assert.True(t, ierr.IsNotFound(err))

	_, err = c.PhaseUsages("pro", "trial")
	assert.True(t, ierr.IsNotFound(err))
}
