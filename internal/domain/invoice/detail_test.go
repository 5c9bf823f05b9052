package invoice

import (
	"testing"

	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsageDetail(t *testing.T) {
	d := NewUsageDetail(2, "cell-phone-minutes", decimal.NewFromFloat(1.5), 3)

	assert.Equal(t, 2, d.Tier)
	assert.Equal(t, "cell-phone-minutes", d.Unit())
	assert.True(t, decimal.NewFromFloat(4.5).Equal(d.Amount))
	assert.Nil(t, d.ExistingUsageAmount)
	assert.Nil(t, d.Reference)
}

func TestUsageDetail_Reconcile(t *testing.T) {
	tests := []struct {
		name              string
		billed            []*UsageDetail
		wantAmount        decimal.Decimal
		wantExisting      *decimal.Decimal
		wantUnreconciled  int
		wantUnmatchedUnit string
	}{
		{
			name:         "same unit is absorbed",
			billed:       []*UsageDetail{NewUsageDetail(1, "A", decimal.NewFromInt(1), 4)},
			wantAmount:   decimal.NewFromInt(6),
			wantExisting: lo.ToPtr(decimal.NewFromInt(4)),
		},
		{
			name: "negative billed amount is absorbed by its absolute value",
			billed: []*UsageDetail{{
				TierUnit: lo.ToPtr("A"),
				Amount:   decimal.NewFromInt(-3),
			}},
			wantAmount:   decimal.NewFromInt(7),
			wantExisting: lo.ToPtr(decimal.NewFromInt(3)),
		},
		{
			name: "every billed detail of the unit accumulates",
			billed: []*UsageDetail{
				NewUsageDetail(1, "A", decimal.NewFromInt(1), 2),
				NewUsageDetail(2, "A", decimal.NewFromInt(2), 1),
			},
			wantAmount:   decimal.NewFromInt(6),
			wantExisting: lo.ToPtr(decimal.NewFromInt(4)),
		},
		{
			name:              "other unit is left unreconciled",
			billed:            []*UsageDetail{NewUsageDetail(1, "B", decimal.NewFromInt(1), 4)},
			wantAmount:        decimal.NewFromInt(10),
			wantUnreconciled:  1,
			wantUnmatchedUnit: "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewUsageDetail(1, "A", decimal.NewFromInt(1), 10)

			unreconciled := d.Reconcile(tt.billed)

			assert.True(t, tt.wantAmount.Equal(d.Amount), "amount: want %s got %s", tt.wantAmount, d.Amount)
			if tt.wantExisting == nil {
				assert.Nil(t, d.ExistingUsageAmount)
			} else {
				require.NotNil(t, d.ExistingUsageAmount)
				assert.True(t, tt.wantExisting.Equal(*d.ExistingUsageAmount))
			}
			require.Len(t, unreconciled, tt.wantUnreconciled)
			if tt.wantUnreconciled > 0 {
				assert.Equal(t, tt.wantUnmatchedUnit, unreconciled[0].Unit())
			}
		})
	}
}

func TestUsageDetailsBlob(t *testing.T) {
	details := []*UsageDetail{
		NewUsageDetail(1, "A", decimal.RequireFromString("0.25"), 4),
		{
			Tier:                0,
			TierPrice:           decimal.NewFromInt(5),
			Quantity:            1,
			Amount:              decimal.NewFromInt(-5),
			ExistingUsageAmount: lo.ToPtr(decimal.NewFromInt(2)),
			Reference:           lo.ToPtr("inv_item_1"),
		},
	}

	blob, err := MarshalUsageDetails(details)
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Contains(t, *blob, `"tierUnit":"A"`)
	assert.Contains(t, *blob, `"existingUsageAmount"`)
	assert.Contains(t, *blob, `"reference":"inv_item_1"`)

	decoded, err := UnmarshalUsageDetails(blob)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "A", decoded[0].Unit())
	assert.True(t, decimal.NewFromInt(1).Equal(decoded[0].Amount))
	assert.Nil(t, decoded[1].TierUnit)
	assert.True(t, decimal.NewFromInt(-5).Equal(decoded[1].Amount))
	assert.Equal(t, "inv_item_1", lo.FromPtr(decoded[1].Reference))
	assert.True(t, SumUsageDetails(details).Equal(SumUsageDetails(decoded)))
}

func TestUsageDetailsBlob_Empty(t *testing.T) {
	blob, err := MarshalUsageDetails(nil)
	require.NoError(t, err)
	assert.Nil(t, blob)

	details, err := UnmarshalUsageDetails(nil)
	require.NoError(t, err)
	assert.Nil(t, details)

	details, err = UnmarshalUsageDetails(lo.ToPtr("  "))
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestUnmarshalUsageDetails_Malformed(t *testing.T) {
	_, err := UnmarshalUsageDetails(lo.ToPtr(`{"tier":`))
	require.Error(t, err)
	assert.True(t, ierr.IsSystem(err))
}

func TestItem_IsMarker(t *testing.T) {
	marker := NewUsageItem(UsageItemParams{SubscriptionID: "sub", UsageName: "u"})
	assert.True(t, marker.IsMarker())
	assert.NotEmpty(t, marker.ID)

	priced := NewUsageItem(UsageItemParams{SubscriptionID: "sub", UsageName: "u", Amount: decimal.NewFromInt(1)})
	assert.False(t, priced.IsMarker())
}
