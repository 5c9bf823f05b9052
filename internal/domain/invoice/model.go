package invoice

import (
	"time"

	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/shopspring/decimal"
)

// Item is an invoice item. Usage items computed by the arrear billing
// carry the usage section name and, in aggregate mode, the serialized
// usage details that produced Amount.
type Item struct {
	ID             string                `json:"id"`
	InvoiceID      string                `json:"invoice_id,omitempty"`
	AccountID      string                `json:"account_id"`
	BundleID       string                `json:"bundle_id,omitempty"`
	SubscriptionID string                `json:"subscription_id"`
	Type           types.InvoiceItemType `json:"type"`
	PlanName       string                `json:"plan_name"`
	PhaseName      string                `json:"phase_name"`
	UsageName      string                `json:"usage_name,omitempty"`
	StartDate      time.Time             `json:"start_date"`
	EndDate        time.Time             `json:"end_date"`
	Amount         decimal.Decimal       `json:"amount"`
	Rate           *decimal.Decimal      `json:"rate,omitempty"`
	Currency       string                `json:"currency"`
	Quantity       *int64                `json:"quantity,omitempty"`
	ItemDetails    *string               `json:"item_details,omitempty"`
}

// UsageItemParams describes the usage item to create
type UsageItemParams struct {
	InvoiceID      string
	AccountID      string
	BundleID       string
	SubscriptionID string
	PlanName       string
	PhaseName      string
	UsageName      string
	StartDate      time.Time
	EndDate        time.Time
	Amount         decimal.Decimal
	Rate           *decimal.Decimal
	Currency       string
	Quantity       *int64
	ItemDetails    *string
}

// NewUsageItem creates a USAGE invoice item with a fresh identifier
func NewUsageItem(params UsageItemParams) *Item {
	return &Item{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_ITEM),
		InvoiceID:      params.InvoiceID,
		AccountID:      params.AccountID,
		BundleID:       params.BundleID,
		SubscriptionID: params.SubscriptionID,
		Type:           types.InvoiceItemTypeUsage,
		PlanName:       params.PlanName,
		PhaseName:      params.PhaseName,
		UsageName:      params.UsageName,
		StartDate:      params.StartDate,
		EndDate:        params.EndDate,
		Amount:         params.Amount,
		Rate:           params.Rate,
		Currency:       params.Currency,
		Quantity:       params.Quantity,
		ItemDetails:    params.ItemDetails,
	}
}

// IsUsage reports whether the item is a usage item
func (i *Item) IsUsage() bool {
	return i.Type == types.InvoiceItemTypeUsage
}

// IsMarker reports whether the item is a zero amount usage item without
// details, the kind emitted for every billed interval boundary pair
func (i *Item) IsMarker() bool {
	return i.IsUsage() && i.Amount.IsZero() && i.ItemDetails == nil && i.Rate == nil
}

// CoveredBy reports whether the item period lies within [start, end]
func (i *Item) CoveredBy(start, end time.Time) bool {
	return !i.StartDate.Before(start) && !i.EndDate.After(end)
}

// Validate validates the invoice item
func (i *Item) Validate() error {
	if err := i.Type.Validate(); err != nil {
		return err
	}
	if i.SubscriptionID == "" {
		return ierr.NewError("invoice item validation failed").
			WithHint("subscription_id is required").
			Mark(ierr.ErrValidation)
	}
	if i.IsUsage() && i.UsageName == "" {
		return ierr.NewError("invoice item validation failed").
			WithHint("usage_name is required for usage items").
			Mark(ierr.ErrValidation)
	}
	if i.EndDate.Before(i.StartDate) {
		return ierr.NewError("invoice item validation failed").
			WithHint("end_date must not be before start_date").
			WithReportableDetails(map[string]any{
				"start_date": i.StartDate,
				"end_date":   i.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
