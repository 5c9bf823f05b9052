package memory

import (
	"context"

	"github.com/flexprice/usagebilling/internal/domain/invoice"
	ierr "github.com/flexprice/usagebilling/internal/errors"
)

// InvoiceItemStore keeps invoice items by id
type InvoiceItemStore struct {
	store *InMemoryStore[*invoice.Item]
}

func NewInvoiceItemStore() *InvoiceItemStore {
	return &InvoiceItemStore{store: NewInMemoryStore[*invoice.Item]()}
}

func (s *InvoiceItemStore) CreateMany(ctx context.Context, items []*invoice.Item) error {
	for _, item := range items {
		if item == nil {
			return ierr.NewError("invoice item is required").
				Mark(ierr.ErrValidation)
		}
		if err := item.Validate(); err != nil {
			return err
		}
		if err := s.store.Create(ctx, item.ID, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *InvoiceItemStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*invoice.Item, error) {
	return s.store.List(ctx,
		func(_ context.Context, item *invoice.Item) bool {
			return item.SubscriptionID == subscriptionID
		},
		func(a, b *invoice.Item) bool {
			if !a.StartDate.Equal(b.StartDate) {
				return a.StartDate.Before(b.StartDate)
			}
			return a.ID < b.ID
		}), nil
}

// Clear removes every item
func (s *InvoiceItemStore) Clear() {
	s.store.Clear()
}
