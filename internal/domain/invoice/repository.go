package invoice

import (
	"context"
)

// Repository defines the read side of invoice item persistence used by usage billing
type Repository interface {
	// ListBySubscription returns every invoice item already billed for the subscription
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Item, error)

	// CreateMany stores the given items
	CreateMany(ctx context.Context, items []*Item) error
}
