package types

import (
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/samber/lo"
)

// UsageType defines how raw usage of a unit is combined within a billing interval
type UsageType string

const (
	// USAGE_TYPE_CAPACITY keeps the highest recorded amount per unit
	USAGE_TYPE_CAPACITY UsageType = "CAPACITY"
	// USAGE_TYPE_CONSUMABLE sums every recorded amount per unit
	USAGE_TYPE_CONSUMABLE UsageType = "CONSUMABLE"
)

func (u UsageType) String() string {
	return string(u)
}

func (u UsageType) Validate() error {
	allowed := []UsageType{USAGE_TYPE_CAPACITY, USAGE_TYPE_CONSUMABLE}
	if !lo.Contains(allowed, u) {
		return ierr.NewError("invalid usage type").
			WithHint("Usage type must be CAPACITY or CONSUMABLE").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": u,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TierBlockPolicy defines how a consumable quantity is priced over a tiered block ladder
type TierBlockPolicy string

const (
	// TIER_BLOCK_POLICY_ALL_TIERS bills each tier touched by the quantity
	TIER_BLOCK_POLICY_ALL_TIERS TierBlockPolicy = "ALL_TIERS"
	// TIER_BLOCK_POLICY_TOP_TIER bills the whole quantity at the tier it lands in
	TIER_BLOCK_POLICY_TOP_TIER TierBlockPolicy = "TOP_TIER"
)

func (p TierBlockPolicy) String() string {
	return string(p)
}

func (p TierBlockPolicy) Validate() error {
	allowed := []TierBlockPolicy{TIER_BLOCK_POLICY_ALL_TIERS, TIER_BLOCK_POLICY_TOP_TIER}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid tier block policy").
			WithHint("Tier block policy must be ALL_TIERS or TOP_TIER").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UsageDetailMode controls the shape of the usage invoice items produced for an interval
type UsageDetailMode string

const (
	// USAGE_DETAIL_MODE_AGGREGATE emits one item per interval carrying the serialized details
	USAGE_DETAIL_MODE_AGGREGATE UsageDetailMode = "AGGREGATE"
	// USAGE_DETAIL_MODE_DETAIL emits one item per priced detail line
	USAGE_DETAIL_MODE_DETAIL UsageDetailMode = "DETAIL"
)

func (m UsageDetailMode) String() string {
	return string(m)
}

func (m UsageDetailMode) Validate() error {
	allowed := []UsageDetailMode{USAGE_DETAIL_MODE_AGGREGATE, USAGE_DETAIL_MODE_DETAIL}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid usage detail mode").
			WithHint("Usage detail mode must be AGGREGATE or DETAIL").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": m,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
