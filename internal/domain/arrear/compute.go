package arrear

import (
	"context"
	"time"

	"github.com/flexprice/usagebilling/internal/domain/billinginterval"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Result holds the items missing from the invoice and the date the
// subscription must be evaluated again
type Result struct {
	Items                []*invoice.Item `json:"items"`
	NextNotificationDate time.Time       `json:"next_notification_date"`
}

// ComputeMissingItemsAndNextNotificationDate compares what the rolled up usage
// should cost with the existing usage items and returns the items still to bill.
// A zero amount marker item is returned for every transition interval.
func (c *ContiguousInterval) ComputeMissingItemsAndNextNotificationDate(ctx context.Context, existing []*invoice.Item) (*Result, error) {
	if err := c.checkBuilt(); err != nil {
		return nil, err
	}

	nextNotificationDate, err := c.computeNextNotificationDate()
	if err != nil {
		return nil, err
	}

	if len(c.transitionDates) < 2 {
		return &Result{
			Items:                []*invoice.Item{},
			NextNotificationDate: nextNotificationDate,
		}, nil
	}

	log := c.log.WithContext(ctx)
	items := make([]*invoice.Item, 0, len(c.transitionDates)-1)
	for i := 1; i < len(c.transitionDates); i++ {
		items = append(items, c.newItem(c.transitionDates[i-1], c.transitionDates[i], decimal.Zero, nil, nil, nil))
	}

	for _, ru := range c.rollUp() {
		details, err := c.computeToBeBilledDetails(ctx, ru)
		if err != nil {
			return nil, err
		}
		toBeBilled := invoice.SumUsageDetails(details)

		billed := c.billedItems(ru.Start, ru.End, existing)
		billedAmount := sumItems(billed)

		if len(billed) > 0 && !billedAmount.LessThan(toBeBilled) {
			log.Debugw("usage interval already billed",
				"usage_name", c.usage.Name,
				"subscription_id", c.SubscriptionID(),
				"start_date", ru.Start,
				"end_date", ru.End,
				"billed", billedAmount,
				"to_be_billed", toBeBilled)
			continue
		}

		details, err = c.reconcile(billed, details)
		if err != nil {
			return nil, err
		}
		amountToBill := invoice.SumUsageDetails(details)
		if !amountToBill.IsPositive() {
			log.Debugw("nothing left to bill after reconciliation",
				"usage_name", c.usage.Name,
				"subscription_id", c.SubscriptionID(),
				"start_date", ru.Start,
				"end_date", ru.End,
				"amount", amountToBill)
			continue
		}

		intervalItems, err := c.itemsFor(ctx, ru, details, amountToBill)
		if err != nil {
			return nil, err
		}
		items = append(items, intervalItems...)

		log.Debugw("computed usage items",
			"usage_name", c.usage.Name,
			"subscription_id", c.SubscriptionID(),
			"start_date", ru.Start,
			"end_date", ru.End,
			"billed", billedAmount,
			"to_be_billed", toBeBilled,
			"amount", amountToBill,
			"items", len(intervalItems))
	}

	return &Result{
		Items:                items,
		NextNotificationDate: nextNotificationDate,
	}, nil
}

// itemsFor shapes the reconciled details of an interval per the configured detail mode
func (c *ContiguousInterval) itemsFor(ctx context.Context, ru usage.RolledUpUsage, details []*invoice.UsageDetail, amount decimal.Decimal) ([]*invoice.Item, error) {
	if c.config.GetItemResultBehaviorMode(ctx) == types.USAGE_DETAIL_MODE_DETAIL {
		items := make([]*invoice.Item, 0, len(details))
		for _, detail := range details {
			items = append(items, c.newItem(ru.Start, ru.End, detail.Amount,
				lo.ToPtr(detail.TierPrice), lo.ToPtr(detail.Quantity), nil))
		}
		return items, nil
	}

	blob, err := invoice.MarshalUsageDetails(details)
	if err != nil {
		return nil, err
	}
	return []*invoice.Item{c.newItem(ru.Start, ru.End, amount, nil, nil, blob)}, nil
}

func (c *ContiguousInterval) newItem(start, end time.Time, amount decimal.Decimal, rate *decimal.Decimal, quantity *int64, details *string) *invoice.Item {
	return invoice.NewUsageItem(invoice.UsageItemParams{
		InvoiceID:      c.invoiceID,
		AccountID:      c.accountID,
		BundleID:       c.BundleID(),
		SubscriptionID: c.SubscriptionID(),
		PlanName:       c.PlanName(),
		PhaseName:      c.PhaseName(),
		UsageName:      c.usage.Name,
		StartDate:      start,
		EndDate:        end,
		Amount:         amount,
		Rate:           rate,
		Currency:       c.Currency(),
		Quantity:       quantity,
		ItemDetails:    details,
	})
}

// NextNotificationDate returns the date the subscription must be evaluated again
func (c *ContiguousInterval) NextNotificationDate() (time.Time, error) {
	if err := c.checkBuilt(); err != nil {
		return time.Time{}, err
	}
	return c.computeNextNotificationDate()
}

// computeNextNotificationDate takes the latest next billing cycle date of every
// pair of consecutive billing events and of the open ended last event
func (c *ContiguousInterval) computeNextNotificationDate() (time.Time, error) {
	var result time.Time
	fold := func(startIndex int, endDate *time.Time) error {
		event := c.billingEvents[startIndex]
		bid, err := billinginterval.NewDetail(billinginterval.Params{
			StartDate:       event.LocalDate(c.location),
			EndDate:         endDate,
			TargetDate:      c.targetDate,
			BillingCycleDay: event.BillCycleDayLocal,
			BillingPeriod:   c.usage.BillingPeriod,
			BillingMode:     types.BillingModeInArrears,
		})
		if err != nil {
			return err
		}
		if next := bid.NextBillingCycleDate(); next.After(result) {
			result = next
		}
		return nil
	}

	last := len(c.billingEvents) - 1
	for i := 0; i < last; i++ {
		endDate := c.billingEvents[i+1].LocalDate(c.location)
		if err := fold(i, &endDate); err != nil {
			return time.Time{}, err
		}
	}
	if err := fold(last, nil); err != nil {
		return time.Time{}, err
	}
	return result, nil
}
