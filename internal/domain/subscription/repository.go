package subscription

import (
	"context"

	"github.com/towerbill/towerbill/internal/types"
)

// Repository defines the interface for subscription persistence operations
type Repository interface {
	// Create creates a new subscription
	Create(ctx context.Context, s *Subscription) error

	// Get retrieves a subscription by ID
	Get(ctx context.Context, id string) (*Subscription, error)

	// Update updates an existing subscription
	Update(ctx context.Context, s *Subscription) error

	// List retrieves subscriptions with filters
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)

	// Count returns the count of subscriptions matching the filter
	Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error)
}
