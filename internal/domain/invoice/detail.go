package invoice

import (
	"strings"

	ierr "github.com/flexprice/usagebilling/internal/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UsageDetail is one priced line of a usage item: a tier, the unit it
// prices, the price per block and how many blocks were billed.
// Reconciliation lines carry the id of the billed item they offset in Reference.
type UsageDetail struct {
	Tier                int              `json:"tier"`
	TierUnit            *string          `json:"tierUnit"`
	TierPrice           decimal.Decimal  `json:"tierPrice"`
	Quantity            int64            `json:"quantity"`
	Amount              decimal.Decimal  `json:"amount"`
	ExistingUsageAmount *decimal.Decimal `json:"existingUsageAmount"`
	Reference           *string          `json:"reference"`
}

// NewUsageDetail returns a detail billing quantity blocks at tierPrice
func NewUsageDetail(tier int, unit string, tierPrice decimal.Decimal, quantity int64) *UsageDetail {
	return &UsageDetail{
		Tier:      tier,
		TierUnit:  lo.ToPtr(unit),
		TierPrice: tierPrice,
		Quantity:  quantity,
		Amount:    tierPrice.Mul(decimal.NewFromInt(quantity)),
	}
}

// Unit returns the unit name of the detail, empty when absent
func (d *UsageDetail) Unit() string {
	return lo.FromPtr(d.TierUnit)
}

// Reconcile lets d absorb the billed details of its unit. The amount of every
// billed detail sharing d's unit is subtracted from d and recorded as existing
// usage. The billed details of other units are returned untouched.
func (d *UsageDetail) Reconcile(billed []*UsageDetail) []*UsageDetail {
	unreconciled := make([]*UsageDetail, 0, len(billed))
	for _, old := range billed {
		if old.Unit() != d.Unit() {
			unreconciled = append(unreconciled, old)
			continue
		}
		existing := old.Amount.Abs()
		if d.ExistingUsageAmount != nil {
			existing = existing.Add(*d.ExistingUsageAmount)
		}
		d.ExistingUsageAmount = lo.ToPtr(existing)
		d.Amount = d.Amount.Sub(old.Amount.Abs())
	}
	return unreconciled
}

// SumUsageDetails returns the total amount of details
func SumUsageDetails(details []*UsageDetail) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Amount)
	}
	return total
}

// MarshalUsageDetails serializes details into the item details blob.
// An empty set yields a nil blob.
func MarshalUsageDetails(details []*UsageDetail) (*string, error) {
	if len(details) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to serialize usage details").
			Mark(ierr.ErrSystem)
	}
	return lo.ToPtr(string(data)), nil
}

// UnmarshalUsageDetails parses an item details blob. A nil or blank blob
// means the item carries no itemized details and yields nil.
func UnmarshalUsageDetails(blob *string) ([]*UsageDetail, error) {
	if blob == nil || strings.TrimSpace(*blob) == "" {
		return nil, nil
	}
	var details []*UsageDetail
	if err := json.Unmarshal([]byte(*blob), &details); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to parse usage details of a billed item").
			WithReportableDetails(map[string]any{
				"item_details": *blob,
			}).
			Mark(ierr.ErrSystem)
	}
	return details, nil
}
