package arrear

import (
	"time"

	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// billedItems returns the usage items of this section billed within [start, end]
func (c *ContiguousInterval) billedItems(start, end time.Time, existing []*invoice.Item) []*invoice.Item {
	return lo.Filter(existing, func(item *invoice.Item, _ int) bool {
		return item.IsUsage() &&
			!item.IsMarker() &&
			item.UsageName == c.usage.Name &&
			item.CoveredBy(start, end)
	})
}

func sumItems(items []*invoice.Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// reconcile offsets the candidate details with what billed already paid for.
// Computed candidates absorb the billed details of their unit, billed details
// left over are appended negated, and billed items without details are
// reversed as a whole. Appended adjustments never absorb billed details.
func (c *ContiguousInterval) reconcile(billed []*invoice.Item, candidates []*invoice.UsageDetail) ([]*invoice.UsageDetail, error) {
	computed := len(candidates)
	for _, item := range billed {
		billedDetails, err := invoice.UnmarshalUsageDetails(item.ItemDetails)
		if err != nil {
			return nil, err
		}

		if len(billedDetails) == 0 {
			candidates = append(candidates, &invoice.UsageDetail{
				TierPrice: lo.FromPtr(item.Rate),
				Quantity:  lo.FromPtr(item.Quantity),
				Amount:    item.Amount.Neg(),
				Reference: lo.ToPtr(item.ID),
			})
			continue
		}

		for _, candidate := range candidates[:computed] {
			billedDetails = candidate.Reconcile(billedDetails)
		}
		for _, old := range billedDetails {
			candidates = append(candidates, &invoice.UsageDetail{
				Tier:      old.Tier,
				TierUnit:  old.TierUnit,
				TierPrice: old.TierPrice,
				Quantity:  old.Quantity,
				Amount:    old.Amount.Neg(),
				Reference: lo.ToPtr(item.ID),
			})
		}
	}
	return candidates, nil
}
