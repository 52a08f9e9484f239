package testutil

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/subscription"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*subscription.Subscription, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.Provider == provider && sub.ProviderID == providerID
	})
	if len(items) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s at %s was not found", providerID, provider).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemorySubscriptionStore) ListByUserID(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.UserID == userID
	})
}

func (s *InMemorySubscriptionStore) ListExpired(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.SubscriptionStatus == types.SubscriptionStatusCanceled &&
			sub.EndsAt != nil && !asOf.Before(*sub.EndsAt)
	})
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, sub.ID, sub)
}
