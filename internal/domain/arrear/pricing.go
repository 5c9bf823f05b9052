package arrear

import (
	"context"

	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// computeToBeBilledDetails prices the rolled up usage of a single interval
func (c *ContiguousInterval) computeToBeBilledDetails(ctx context.Context, ru usage.RolledUpUsage) ([]*invoice.UsageDetail, error) {
	if c.usage.IsCapacity() {
		return c.computeToBeBilledCapacity(ru.Units)
	}

	details := make([]*invoice.UsageDetail, 0, len(ru.Units))
	for _, unit := range ru.Units {
		if !c.isUnitType(unit.UnitType) {
			c.log.WithContext(ctx).Warnw("skipping unit type not priced by usage section",
				"usage_name", c.usage.Name,
				"subscription_id", c.SubscriptionID(),
				"unit_type", unit.UnitType,
				"start_date", ru.Start,
				"end_date", ru.End)
			continue
		}
		unitDetails, err := c.computeToBeBilledConsumable(unit)
		if err != nil {
			return nil, err
		}
		details = append(details, unitDetails...)
	}
	return details, nil
}

// computeToBeBilledCapacity selects the first tier every unit complies with.
// The tier price is charged once, on the detail of the last unit.
func (c *ContiguousInterval) computeToBeBilledCapacity(units []usage.RolledUpUnit) ([]*invoice.UsageDetail, error) {
	if len(units) == 0 {
		return nil, nil
	}
	tiers := c.usage.CapacityTiers()

	for _, unit := range units {
		defined := lo.SomeBy(tiers, func(tier catalog.Tier) bool {
			_, ok := tier.LimitFor(unit.UnitType)
			return ok
		})
		if !defined {
			return nil, ierr.NewErrorf("unit %s has no limit in usage %s", unit.UnitType, c.usage.Name).
				WithHint("Capacity usage refers to a unit missing from every tier").
				WithReportableDetails(map[string]any{
					"usage_name": c.usage.Name,
					"unit_type":  unit.UnitType,
				}).
				Mark(ierr.ErrCatalog)
		}
	}

	for i, tier := range tiers {
		complies := lo.EveryBy(units, func(unit usage.RolledUpUnit) bool {
			limit, ok := tier.LimitFor(unit.UnitType)
			// min is ignored, tiers are contiguous
			return ok && limit.Allows(unit.Amount)
		})
		if !complies {
			continue
		}

		price, err := tier.RecurringPrice.PriceFor(c.Currency())
		if err != nil {
			return nil, err
		}
		details := make([]*invoice.UsageDetail, 0, len(units))
		for _, unit := range units {
			details = append(details, &invoice.UsageDetail{
				Tier:      i + 1,
				TierUnit:  lo.ToPtr(unit.UnitType),
				TierPrice: price,
				Quantity:  unit.Amount,
				Amount:    decimal.Zero,
			})
		}
		details[len(details)-1].Amount = price
		return details, nil
	}

	return nil, ierr.NewErrorf("no tier of usage %s matches the rolled up usage", c.usage.Name).
		WithHint("Capacity tiers do not cover the recorded usage, the last tier should be unlimited").
		WithReportableDetails(map[string]any{
			"usage_name": c.usage.Name,
			"units":      units,
		}).
		Mark(ierr.ErrCatalog)
}

func (c *ContiguousInterval) computeToBeBilledConsumable(unit usage.RolledUpUnit) ([]*invoice.UsageDetail, error) {
	blocks := c.usage.TieredBlocksFor(unit.UnitType)
	if len(blocks) == 0 {
		return nil, ierr.NewErrorf("unit %s has no tiered block in usage %s", unit.UnitType, c.usage.Name).
			Mark(ierr.ErrCatalog)
	}

	switch c.usage.TierBlockPolicy {
	case types.TIER_BLOCK_POLICY_ALL_TIERS:
		return c.computeAllTiers(blocks, unit)
	case types.TIER_BLOCK_POLICY_TOP_TIER:
		detail, err := c.computeTopTier(blocks, unit)
		if err != nil {
			return nil, err
		}
		return []*invoice.UsageDetail{detail}, nil
	default:
		return nil, ierr.NewErrorf("unknown tier block policy %s", c.usage.TierBlockPolicy).
			WithHint("Usage section has an unsupported tier block policy").
			WithReportableDetails(map[string]any{
				"usage_name":        c.usage.Name,
				"tier_block_policy": c.usage.TierBlockPolicy,
			}).
			Mark(ierr.ErrCatalog)
	}
}

// computeAllTiers fills each tier up to its max blocks before spilling into the next one
func (c *ContiguousInterval) computeAllTiers(blocks []catalog.TieredBlock, unit usage.RolledUpUnit) ([]*invoice.UsageDetail, error) {
	details := make([]*invoice.UsageDetail, 0, len(blocks))
	remaining := unit.Amount

	for i, block := range blocks {
		price, err := block.Price.PriceFor(c.Currency())
		if err != nil {
			return nil, err
		}

		nbBlocks := ceilDiv(remaining, block.Size)
		if !block.IsUnlimited() && nbBlocks > block.Max {
			details = append(details, invoice.NewUsageDetail(i+1, unit.UnitType, price, block.Max))
			remaining -= block.Max * block.Size
			continue
		}

		details = append(details, invoice.NewUsageDetail(i+1, unit.UnitType, price, nbBlocks))
		remaining = 0
		break
	}

	if remaining > 0 {
		return nil, ierr.NewErrorf("tiered blocks of unit %s are exhausted", unit.UnitType).
			WithHint("The last tiered block should be unlimited").
			WithReportableDetails(map[string]any{
				"usage_name": c.usage.Name,
				"unit_type":  unit.UnitType,
				"amount":     unit.Amount,
				"remaining":  remaining,
			}).
			Mark(ierr.ErrCatalog)
	}
	return details, nil
}

// computeTopTier bills the whole amount at the tier the amount lands in,
// the last tier when none holds it
func (c *ContiguousInterval) computeTopTier(blocks []catalog.TieredBlock, unit usage.RolledUpUnit) (*invoice.UsageDetail, error) {
	targetIndex := len(blocks) - 1
	remaining := unit.Amount

	for i, block := range blocks {
		if !block.IsUnlimited() && ceilDiv(remaining, block.Size) > block.Max {
			remaining -= block.Max * block.Size
			continue
		}
		targetIndex = i
		break
	}

	target := blocks[targetIndex]
	price, err := target.Price.PriceFor(c.Currency())
	if err != nil {
		return nil, err
	}
	return invoice.NewUsageDetail(targetIndex+1, unit.UnitType, price, ceilDiv(unit.Amount, target.Size)), nil
}

func ceilDiv(amount, size int64) int64 {
	if amount <= 0 {
		return 0
	}
	return (amount + size - 1) / size
}
