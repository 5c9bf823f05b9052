package catalog

import (
	"strings"

	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Unlimited is the sentinel maximum of the last tier of a ladder
const Unlimited = -1

// Price is an amount in a single currency
type Price struct {
	Currency string          `json:"currency" validate:"required"`
	Value    decimal.Decimal `json:"value"`
}

// Prices holds the price of a tier or block in every supported currency
type Prices []Price

// PriceFor returns the value for the given currency
func (p Prices) PriceFor(currency string) (decimal.Decimal, error) {
	for _, price := range p {
		if strings.EqualFold(price.Currency, currency) {
			return price.Value, nil
		}
	}
	return decimal.Zero, ierr.NewErrorf("no price defined for currency %s", currency).
		WithHint("Catalog price is missing for the subscription currency").
		WithReportableDetails(map[string]any{
			"currency":  currency,
			"available": lo.Map(p, func(price Price, _ int) string { return price.Currency }),
		}).
		Mark(ierr.ErrCatalog)
}

// Limit bounds the quantity of a unit within a capacity tier.
// A Max of Unlimited means no upper bound.
type Limit struct {
	Unit string  `json:"unit" validate:"required"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// IsUnlimited reports whether the limit has no upper bound
func (l Limit) IsUnlimited() bool {
	return l.Max == Unlimited
}

// Allows reports whether quantity fits under the limit
func (l Limit) Allows(quantity int64) bool {
	return l.IsUnlimited() || float64(quantity) <= l.Max
}

// TieredBlock charges Price for every block of Size units, up to Max blocks.
// A Max of Unlimited means the block count is not capped.
type TieredBlock struct {
	Unit  string `json:"unit" validate:"required"`
	Size  int64  `json:"size" validate:"gt=0"`
	Max   int64  `json:"max" validate:"gte=-1"`
	Price Prices `json:"price" validate:"required,min=1,dive"`
}

// IsUnlimited reports whether the block count of the tier is not capped
func (b TieredBlock) IsUnlimited() bool {
	return b.Max == Unlimited
}

// Tier is one step of a usage section. Capacity sections use Limits and
// RecurringPrice, consumable sections use Blocks.
type Tier struct {
	Limits         []Limit       `json:"limits,omitempty" validate:"dive"`
	Blocks         []TieredBlock `json:"blocks,omitempty" validate:"dive"`
	RecurringPrice Prices        `json:"recurring_price,omitempty" validate:"dive"`
}

// LimitFor returns the limit defined for unit in this tier
func (t Tier) LimitFor(unit string) (Limit, bool) {
	return lo.Find(t.Limits, func(l Limit) bool {
		return l.Unit == unit
	})
}

// Usage is a usage section of a plan phase
type Usage struct {
	Name            string                `json:"name" validate:"required"`
	BillingMode     types.BillingMode     `json:"billing_mode" validate:"required"`
	UsageType       types.UsageType       `json:"usage_type" validate:"required"`
	BillingPeriod   types.BillingPeriod   `json:"billing_period" validate:"required"`
	TierBlockPolicy types.TierBlockPolicy `json:"tier_block_policy,omitempty"`
	Tiers           []Tier                `json:"tiers" validate:"required,min=1,dive"`
}

// IsInArrear reports whether the section is billed after consumption
func (u *Usage) IsInArrear() bool {
	return u.BillingMode == types.BillingModeInArrears
}

// IsCapacity reports whether the section is a capacity section
func (u *Usage) IsCapacity() bool {
	return u.UsageType == types.USAGE_TYPE_CAPACITY
}

// CapacityTiers returns the tiers of a capacity section in catalog order
func (u *Usage) CapacityTiers() []Tier {
	if !u.IsCapacity() {
		return nil
	}
	return u.Tiers
}

// UnitTypes returns the set of unit names this section prices, in first seen order
func (u *Usage) UnitTypes() []string {
	units := make([]string, 0)
	for _, tier := range u.Tiers {
		if u.IsCapacity() {
			for _, limit := range tier.Limits {
				units = append(units, limit.Unit)
			}
			continue
		}
		for _, block := range tier.Blocks {
			units = append(units, block.Unit)
		}
	}
	return lo.Uniq(units)
}

// TieredBlocksFor returns the block ladder of unit across tiers, in catalog order
func (u *Usage) TieredBlocksFor(unit string) []TieredBlock {
	blocks := make([]TieredBlock, 0)
	for _, tier := range u.Tiers {
		for _, block := range tier.Blocks {
			if block.Unit == unit {
				blocks = append(blocks, block)
			}
		}
	}
	return blocks
}

// Validate checks the section is internally consistent
func (u *Usage) Validate() error {
	if u == nil {
		return ierr.NewError("usage section is required").
			Mark(ierr.ErrValidation)
	}
	if strings.TrimSpace(u.Name) == "" {
		return ierr.NewError("usage section name is required").
			WithHint("Every usage section needs a name").
			Mark(ierr.ErrValidation)
	}
	if err := u.BillingMode.Validate(); err != nil {
		return err
	}
	if err := u.UsageType.Validate(); err != nil {
		return err
	}
	if err := u.BillingPeriod.Validate(); err != nil {
		return err
	}
	if len(u.Tiers) == 0 {
		return ierr.NewError("usage section has no tiers").
			WithHintf("Usage section %s must define at least one tier", u.Name).
			Mark(ierr.ErrValidation)
	}

	if u.IsCapacity() {
		for i, tier := range u.Tiers {
			if len(tier.Limits) == 0 {
				return ierr.NewErrorf("capacity tier %d of usage %s has no limits", i+1, u.Name).
					WithHint("Capacity tiers must define at least one limit").
					Mark(ierr.ErrValidation)
			}
			if len(tier.RecurringPrice) == 0 {
				return ierr.NewErrorf("capacity tier %d of usage %s has no price", i+1, u.Name).
					WithHint("Capacity tiers must define a recurring price").
					Mark(ierr.ErrValidation)
			}
		}
		return nil
	}

	if err := u.TierBlockPolicy.Validate(); err != nil {
		return err
	}
	for i, tier := range u.Tiers {
		if len(tier.Blocks) == 0 {
			return ierr.NewErrorf("consumable tier %d of usage %s has no blocks", i+1, u.Name).
				WithHint("Consumable tiers must define at least one tiered block").
				Mark(ierr.ErrValidation)
		}
		for _, block := range tier.Blocks {
			if block.Size <= 0 {
				return ierr.NewErrorf("tiered block of unit %s has a non positive size", block.Unit).
					WithHint("Tiered block size must be greater than zero").
					Mark(ierr.ErrValidation)
			}
		}
	}
	return nil
}
