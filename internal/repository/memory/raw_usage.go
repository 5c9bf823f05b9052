package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/flexprice/usagebilling/internal/domain/usage"
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/types"
)

type rawUsageEntry struct {
	seq    int64
	record *usage.RawUsage
}

// RawUsageStore keeps raw usage records in arrival order per date
type RawUsageStore struct {
	store *InMemoryStore[*rawUsageEntry]
	seq   atomic.Int64
}

func NewRawUsageStore() *RawUsageStore {
	return &RawUsageStore{store: NewInMemoryStore[*rawUsageEntry]()}
}

func (s *RawUsageStore) Record(ctx context.Context, records []*usage.RawUsage) error {
	for _, record := range records {
		if record == nil || record.SubscriptionID == "" || record.UnitType == "" {
			return ierr.NewError("invalid raw usage record").
				WithHint("subscription_id and unit_type are required").
				Mark(ierr.ErrValidation)
		}
		entry := &rawUsageEntry{seq: s.seq.Add(1), record: record}
		if err := s.store.Create(ctx, types.GenerateUUID(), entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *RawUsageStore) ListRawUsage(ctx context.Context, subscriptionID string, from, to time.Time) ([]*usage.RawUsage, error) {
	entries := s.store.List(ctx,
		func(_ context.Context, e *rawUsageEntry) bool {
			return e.record.SubscriptionID == subscriptionID &&
				!e.record.Date.Before(from) &&
				e.record.Date.Before(to)
		},
		func(a, b *rawUsageEntry) bool {
			if !a.record.Date.Equal(b.record.Date) {
				return a.record.Date.Before(b.record.Date)
			}
			return a.seq < b.seq
		})

	records := make([]*usage.RawUsage, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.record)
	}
	return records, nil
}

// Clear removes every record
func (s *RawUsageStore) Clear() {
	s.store.Clear()
}
