package service

import (
	"context"
	"time"

	"github.com/flexprice/usagebilling/internal/domain/arrear"
	"github.com/flexprice/usagebilling/internal/domain/billing"
	"github.com/flexprice/usagebilling/internal/domain/catalog"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/flexprice/usagebilling/internal/validator"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// SubscriptionUsageRequest asks for the usage items of one subscription
type SubscriptionUsageRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
	AccountID      string `json:"account_id" validate:"required"`
	InvoiceID      string `json:"invoice_id,omitempty"`

	// TargetDate is the local date the subscription is evaluated at
	TargetDate time.Time `json:"target_date" validate:"required"`

	// Location is the account timezone, UTC when nil
	Location *time.Location `json:"-" validate:"-"`

	BillingEvents []*billing.Event `json:"billing_events" validate:"required,min=1,dive,required"`
}

func (r *SubscriptionUsageRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	for _, e := range r.BillingEvents {
		if e.SubscriptionID != r.SubscriptionID {
			return ierr.NewError("billing event belongs to another subscription").
				WithHint("All billing events must reference the requested subscription").
				WithReportableDetails(map[string]any{
					"subscription_id":       r.SubscriptionID,
					"event_subscription_id": e.SubscriptionID,
				}).
				Mark(ierr.ErrValidation)
		}
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SubscriptionUsageResult holds the computed items of one subscription
type SubscriptionUsageResult struct {
	SubscriptionID string `json:"subscription_id"`

	// Items include the zero amount marker item of every transition interval
	Items []*invoice.Item `json:"items"`

	// NextNotificationDates is keyed by usage section name
	NextNotificationDates map[string]time.Time `json:"next_notification_dates"`

	// NextNotificationDate is the earliest of NextNotificationDates, nil without in arrear usage
	NextNotificationDate *time.Time `json:"next_notification_date,omitempty"`
}

// BillableItems returns the items to put on the invoice, without markers
func (r *SubscriptionUsageResult) BillableItems() []*invoice.Item {
	return lo.Filter(r.Items, func(item *invoice.Item, _ int) bool {
		return !item.IsMarker()
	})
}

// UsageInArrearService computes the in arrear usage items of subscriptions
type UsageInArrearService interface {
	// ComputeSubscriptionUsage computes the missing usage items of a subscription without storing them
	ComputeSubscriptionUsage(ctx context.Context, req *SubscriptionUsageRequest) (*SubscriptionUsageResult, error)

	// BillSubscriptionUsage computes the missing usage items and stores the billable ones
	BillSubscriptionUsage(ctx context.Context, req *SubscriptionUsageRequest) (*SubscriptionUsageResult, error)

	// ComputeUsage evaluates independent subscriptions concurrently. Results follow the order of reqs.
	ComputeUsage(ctx context.Context, reqs []*SubscriptionUsageRequest) ([]*SubscriptionUsageResult, error)
}

type usageInArrearService struct {
	ServiceParams
}

func NewUsageInArrearService(params ServiceParams) UsageInArrearService {
	return &usageInArrearService{
		ServiceParams: params,
	}
}

// eventUsages pairs a billing event with the in arrear usage sections it references
type eventUsages struct {
	event  *billing.Event
	usages []*catalog.Usage
}

func (s *usageInArrearService) ComputeSubscriptionUsage(ctx context.Context, req *SubscriptionUsageRequest) (*SubscriptionUsageResult, error) {
	if req == nil {
		return nil, ierr.NewError("request is required").
			Mark(ierr.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The billing run was cancelled").
			WithReportableDetails(map[string]any{
				"subscription_id": req.SubscriptionID,
			}).
			Mark(ierr.ErrSystem)
	}

	log := s.Logger.WithContext(ctx)
	location := req.Location
	if location == nil {
		location = time.UTC
	}
	targetDate := types.TruncateToDate(req.TargetDate)
	invoiceID := req.InvoiceID
	if invoiceID == "" {
		invoiceID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE)
	}

	events := make([]*billing.Event, len(req.BillingEvents))
	copy(events, req.BillingEvents)
	billing.SortEvents(events)

	// events after the target date have no usage to bill yet
	events = lo.Filter(events, func(e *billing.Event, _ int) bool {
		return !e.LocalDate(location).After(targetDate)
	})

	result := &SubscriptionUsageResult{
		SubscriptionID:        req.SubscriptionID,
		Items:                 []*invoice.Item{},
		NextNotificationDates: make(map[string]time.Time),
	}
	if len(events) == 0 {
		return result, nil
	}

	resolved, err := s.resolveUsages(ctx, events)
	if err != nil {
		return nil, err
	}

	existing, err := s.InvoiceItemRepo.ListBySubscription(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	rawUsageStartDate := s.rawUsageStartDate(resolved, existing, location)
	rawUsage, err := s.RawUsageRepo.ListRawUsage(ctx, req.SubscriptionID, rawUsageStartDate, targetDate)
	if err != nil {
		return nil, err
	}

	intervals, err := s.buildIntervals(resolved, arrear.Params{
		AccountID:         req.AccountID,
		InvoiceID:         invoiceID,
		RawUsage:          rawUsage,
		TargetDate:        targetDate,
		RawUsageStartDate: rawUsageStartDate,
		Location:          location,
		Config:            s.Config.Invoice,
		Logger:            s.Logger,
	})
	if err != nil {
		return nil, err
	}

	for _, interval := range intervals {
		computed, err := interval.ComputeMissingItemsAndNextNotificationDate(ctx, existing)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, computed.Items...)

		name := interval.Usage().Name
		if !computed.NextNotificationDate.IsZero() {
			result.NextNotificationDates[name] = computed.NextNotificationDate
		}
	}

	for _, date := range result.NextNotificationDates {
		if result.NextNotificationDate == nil || date.Before(*result.NextNotificationDate) {
			result.NextNotificationDate = lo.ToPtr(date)
		}
	}

	log.Debugw("computed subscription usage",
		"subscription_id", req.SubscriptionID,
		"target_date", targetDate,
		"raw_usage_start_date", rawUsageStartDate,
		"intervals", len(intervals),
		"items", len(result.Items))
	return result, nil
}

func (s *usageInArrearService) BillSubscriptionUsage(ctx context.Context, req *SubscriptionUsageRequest) (*SubscriptionUsageResult, error) {
	result, err := s.ComputeSubscriptionUsage(ctx, req)
	if err != nil {
		return nil, err
	}

	billable := result.BillableItems()
	if len(billable) == 0 {
		return result, nil
	}
	if err := s.InvoiceItemRepo.CreateMany(ctx, billable); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("billed subscription usage",
		"subscription_id", req.SubscriptionID,
		"items", len(billable))
	return result, nil
}

func (s *usageInArrearService) ComputeUsage(ctx context.Context, reqs []*SubscriptionUsageRequest) ([]*SubscriptionUsageResult, error) {
	if types.GetBillingRunID(ctx) == "" {
		ctx = types.WithBillingRunID(ctx, types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_RUN))
	}

	maxConcurrency := s.Config.BillingRun.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	type indexedResult struct {
		index  int
		result *SubscriptionUsageResult
	}

	p := pool.NewWithResults[indexedResult]().
		WithContext(ctx).
		WithMaxGoroutines(maxConcurrency).
		WithCancelOnError().
		WithFirstError()

	for i, req := range reqs {
		p.Go(func(ctx context.Context) (indexedResult, error) {
			result, err := s.ComputeSubscriptionUsage(ctx, req)
			if err != nil {
				return indexedResult{}, err
			}
			return indexedResult{index: i, result: result}, nil
		})
	}

	computed, err := p.Wait()
	if err != nil {
		s.Logger.WithContext(ctx).Errorw("billing run failed",
			"subscriptions", len(reqs),
			"error", err)
		return nil, err
	}

	results := make([]*SubscriptionUsageResult, len(reqs))
	for _, c := range computed {
		results[c.index] = c.result
	}

	s.Logger.WithContext(ctx).Infow("billing run completed",
		"subscriptions", len(reqs))
	return results, nil
}

// resolveUsages looks up the in arrear usage sections of every event. Cancel
// events reference none.
func (s *usageInArrearService) resolveUsages(ctx context.Context, events []*billing.Event) ([]eventUsages, error) {
	resolved := make([]eventUsages, 0, len(events))
	for _, e := range events {
		if e.IsCancel() {
			resolved = append(resolved, eventUsages{event: e})
			continue
		}

		usages, err := s.CatalogRepo.GetPhaseUsages(ctx, e.PlanName, e.PhaseName)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, eventUsages{
			event: e,
			usages: lo.Filter(usages, func(u *catalog.Usage, _ int) bool {
				return u.IsInArrear()
			}),
		})
	}
	return resolved, nil
}

// rawUsageStartDate is the earliest event date unless every in arrear usage
// section was already billed, in which case loading starts a few billing
// periods before the earliest latest billed end date.
func (s *usageInArrearService) rawUsageStartDate(resolved []eventUsages, existing []*invoice.Item, location *time.Location) time.Time {
	earliest := resolved[0].event.LocalDate(location)

	lookback := s.Config.Invoice.MaxRawUsagePreviousPeriod
	if lookback < 0 {
		return earliest
	}

	usages := make(map[string]*catalog.Usage)
	for _, r := range resolved {
		for _, u := range r.usages {
			if _, ok := usages[u.Name]; !ok {
				usages[u.Name] = u
			}
		}
	}
	if len(usages) == 0 {
		return earliest
	}

	var start time.Time
	for name, u := range usages {
		billed := lo.Filter(existing, func(item *invoice.Item, _ int) bool {
			return item.IsUsage() && item.UsageName == name
		})
		if len(billed) == 0 {
			return earliest
		}

		latest := lo.MaxBy(billed, func(a, b *invoice.Item) bool {
			return a.EndDate.After(b.EndDate)
		}).EndDate
		candidate := types.AdvanceByPeriods(types.TruncateToDate(latest), u.BillingPeriod, -lookback)
		if start.IsZero() || candidate.Before(start) {
			start = candidate
		}
	}

	if start.Before(earliest) {
		return earliest
	}
	return start
}

// buildIntervals groups the events into contiguous intervals per usage
// section. An interval opens when a section first appears and closes on the
// first event that no longer references it.
func (s *usageInArrearService) buildIntervals(resolved []eventUsages, shared arrear.Params) ([]*arrear.ContiguousInterval, error) {
	intervals := make([]*arrear.ContiguousInterval, 0)
	open := make([]*arrear.ContiguousInterval, 0)

	for _, r := range resolved {
		referenced := lo.SliceToMap(r.usages, func(u *catalog.Usage) (string, *catalog.Usage) {
			return u.Name, u
		})

		stillOpen := make([]*arrear.ContiguousInterval, 0, len(open))
		for _, interval := range open {
			if err := interval.AddBillingEvent(r.event); err != nil {
				return nil, err
			}
			if _, ok := referenced[interval.Usage().Name]; ok {
				stillOpen = append(stillOpen, interval)
				continue
			}
			if err := interval.Build(true); err != nil {
				return nil, err
			}
		}
		open = stillOpen

		for _, u := range r.usages {
			if lo.ContainsBy(open, func(interval *arrear.ContiguousInterval) bool {
				return interval.Usage().Name == u.Name
			}) {
				continue
			}

			params := shared
			params.Usage = u
			params.RawUsage = rawUsageFor(u, shared.RawUsage)
			interval, err := arrear.NewContiguousInterval(params)
			if err != nil {
				return nil, err
			}
			if err := interval.AddBillingEvent(r.event); err != nil {
				return nil, err
			}
			open = append(open, interval)
			intervals = append(intervals, interval)
		}
	}

	for _, interval := range open {
		if err := interval.Build(false); err != nil {
			return nil, err
		}
	}
	return intervals, nil
}

// rawUsageFor keeps the records of the unit types declared by the section
func rawUsageFor(u *catalog.Usage, records []*usage.RawUsage) []*usage.RawUsage {
	unitTypes := u.UnitTypes()
	return lo.Filter(records, func(r *usage.RawUsage, _ int) bool {
		return lo.Contains(unitTypes, r.UnitType)
	})
}
