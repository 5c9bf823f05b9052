package main

import (
	"context"
	"io"
	"time"

	"github.com/flexprice/usagebilling/internal/domain/billing"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/service"
	"github.com/flexprice/usagebilling/internal/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const dateLayout = "2006-01-02"

// document is the billing run input
type document struct {
	TargetDate      string                 `json:"target_date"`
	AccountTimezone string                 `json:"account_timezone"`
	Catalog         *catalog.Catalog       `json:"catalog"`
	Subscriptions   []subscriptionDocument `json:"subscriptions"`

	targetDate time.Time
	location   *time.Location
}

type subscriptionDocument struct {
	SubscriptionID string           `json:"subscription_id"`
	AccountID      string           `json:"account_id"`
	InvoiceID      string           `json:"invoice_id"`
	BillingEvents  []*billing.Event `json:"billing_events"`
	RawUsage       []rawUsageRecord `json:"raw_usage"`
	ExistingItems  []*invoice.Item  `json:"existing_items"`
}

// rawUsageRecord carries its date as a YYYY-MM-DD local date
type rawUsageRecord struct {
	UnitType string `json:"unit_type"`
	Date     string `json:"date"`
	Amount   int64  `json:"amount"`
}

func parseDocument(raw []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Input must be a valid billing run document").
			Mark(ierr.ErrValidation)
	}

	targetDate, err := parseDate(doc.TargetDate)
	if err != nil {
		return nil, err
	}
	doc.targetDate = targetDate

	doc.location = time.UTC
	if doc.AccountTimezone != "" {
		loc, err := time.LoadLocation(doc.AccountTimezone)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Unknown account timezone %s", doc.AccountTimezone).
				Mark(ierr.ErrValidation)
		}
		doc.location = loc
	}

	if doc.Catalog == nil {
		return nil, ierr.NewError("catalog is required").
			WithHint("The billing run document must carry a catalog").
			Mark(ierr.ErrValidation)
	}
	return &doc, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Dates must use the %s layout", dateLayout).
			WithReportableDetails(map[string]any{"value": value}).
			Mark(ierr.ErrValidation)
	}
	return types.TruncateToDate(t), nil
}

// load stores the catalog, raw usage and existing items of the document and
// returns one request per subscription
func (d *document) load(ctx context.Context, deps app) ([]*service.SubscriptionUsageRequest, error) {
	if err := deps.CatalogStore.Load(d.Catalog); err != nil {
		return nil, err
	}

	reqs := make([]*service.SubscriptionUsageRequest, 0, len(d.Subscriptions))
	for _, sub := range d.Subscriptions {
		records := make([]*usage.RawUsage, 0, len(sub.RawUsage))
		for _, r := range sub.RawUsage {
			date, err := parseDate(r.Date)
			if err != nil {
				return nil, err
			}
			records = append(records, &usage.RawUsage{
				SubscriptionID: sub.SubscriptionID,
				UnitType:       r.UnitType,
				Date:           date,
				Amount:         r.Amount,
			})
		}
		if err := deps.RawUsageRepo.Record(ctx, records); err != nil {
			return nil, err
		}

		for _, item := range sub.ExistingItems {
			if item.ID == "" {
				item.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_ITEM)
			}
			if item.SubscriptionID == "" {
				item.SubscriptionID = sub.SubscriptionID
			}
		}
		if err := deps.InvoiceItemRepo.CreateMany(ctx, sub.ExistingItems); err != nil {
			return nil, err
		}

		reqs = append(reqs, &service.SubscriptionUsageRequest{
			SubscriptionID: sub.SubscriptionID,
			AccountID:      sub.AccountID,
			InvoiceID:      sub.InvoiceID,
			TargetDate:     d.targetDate,
			Location:       d.location,
			BillingEvents:  sub.BillingEvents,
		})
	}
	return reqs, nil
}

type subscriptionOutput struct {
	SubscriptionID        string               `json:"subscription_id"`
	Items                 []*invoice.Item      `json:"items"`
	NextNotificationDates map[string]time.Time `json:"next_notification_dates"`
	NextNotificationDate  *time.Time           `json:"next_notification_date,omitempty"`
}

func writeOutput(out io.Writer, results []*service.SubscriptionUsageResult) error {
	output := lo.Map(results, func(r *service.SubscriptionUsageResult, _ int) subscriptionOutput {
		return subscriptionOutput{
			SubscriptionID:        r.SubscriptionID,
			Items:                 r.BillableItems(),
			NextNotificationDates: r.NextNotificationDates,
			NextNotificationDate:  r.NextNotificationDate,
		}
	})

	encoded, err := json.MarshalIndent(map[string]any{"results": output}, "", "  ")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode the billing run result").
			Mark(ierr.ErrSystem)
	}
	_, err = out.Write(append(encoded, '\n'))
	return err
}
