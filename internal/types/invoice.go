package types

import (
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/samber/lo"
)

// InvoiceItemType is the type of an invoice item
// Only USAGE items take part in usage reconciliation
type InvoiceItemType string

const (
	InvoiceItemTypeUsage     InvoiceItemType = "USAGE"
	InvoiceItemTypeRecurring InvoiceItemType = "RECURRING"
	InvoiceItemTypeFixed     InvoiceItemType = "FIXED"
	InvoiceItemTypeItemAdj   InvoiceItemType = "ITEM_ADJ"
)

func (t InvoiceItemType) String() string {
	return string(t)
}

func (t InvoiceItemType) Validate() error {
	allowed := []InvoiceItemType{
		InvoiceItemTypeUsage,
		InvoiceItemTypeRecurring,
		InvoiceItemTypeFixed,
		InvoiceItemTypeItemAdj,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid invoice item type").
			WithHint("Please provide a valid invoice item type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
