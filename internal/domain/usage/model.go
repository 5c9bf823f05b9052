package usage

import (
	"context"
	"sort"
	"time"
)

// RawUsage is a single metering record for a unit of a subscription.
// Date is a calendar date in the account timezone.
type RawUsage struct {
	SubscriptionID string    `json:"subscription_id" validate:"required"`
	UnitType       string    `json:"unit_type" validate:"required"`
	Date           time.Time `json:"date" validate:"required"`
	Amount         int64     `json:"amount"`
}

// RolledUpUnit is the combined amount of a unit over an interval
type RolledUpUnit struct {
	UnitType string `json:"unit_type"`
	Amount   int64  `json:"amount"`
}

// RolledUpUsage is the usage of a subscription aggregated over [Start, End)
type RolledUpUsage struct {
	SubscriptionID string         `json:"subscription_id"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Units          []RolledUpUnit `json:"units"`
}

// SortRawUsage orders records chronologically keeping the input order of same day records
func SortRawUsage(records []*RawUsage) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// Repository provides raw usage records
type Repository interface {
	// ListRawUsage returns the records of a subscription dated in [from, to), ordered by date
	ListRawUsage(ctx context.Context, subscriptionID string, from, to time.Time) ([]*RawUsage, error)

	// Record stores raw usage records
	Record(ctx context.Context, records []*RawUsage) error
}
