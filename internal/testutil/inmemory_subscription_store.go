package testutil

import (
	"context"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/domain/subscription"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{InMemoryStore: NewInMemoryStore[*subscription.Subscription]()}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	if sub.ApprovedAt != nil {
		approvedAt := *sub.ApprovedAt
		copied.ApprovedAt = &approvedAt
	}
	if sub.RenewedFromID != nil {
		renewedFrom := *sub.RenewedFromID
		copied.RenewedFromID = &renewedFrom
	}
	return &copied
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || sub.Status == types.StatusDeleted {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription exists with the given ID").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if err := s.InMemoryStore.Update(ctx, sub.ID, copySubscription(sub)); err != nil {
		return ierr.NewError("subscription not found").
			WithHint("No subscription exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func subscriptionFilterFn(_ context.Context, sub *subscription.Subscription, raw interface{}) bool {
	filter, ok := raw.(*types.SubscriptionFilter)
	if !ok || filter == nil {
		return sub.Status == types.StatusPublished
	}
	if sub.Status != filter.GetStatus() {
		return false
	}
	if len(filter.ProjectIDs) > 0 && !lo.Contains(filter.ProjectIDs, sub.ProjectID) {
		return false
	}
	if len(filter.SubscriptionStatus) > 0 && !lo.Contains(filter.SubscriptionStatus, sub.SubStatus) {
		return false
	}
	return true
}

func subscriptionSortFn(a, b *subscription.Subscription) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	subs, err := s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(subs, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		return copySubscription(sub)
	}), nil
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, subscriptionFilterFn)
}
