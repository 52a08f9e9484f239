package testutil

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/webhookevent"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// InMemoryWebhookEventStore implements webhookevent.Repository
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.WebhookEvent]
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.WebhookEvent](),
	}
}

// Record mirrors the insert-or-fetch on the unique pair
// (provider, external_event_id)
func (s *InMemoryWebhookEventStore) Record(ctx context.Context, event *webhookevent.WebhookEvent) (bool, *webhookevent.WebhookEvent, error) {
	existing, err := s.GetByExternalID(ctx, event.Provider, event.ExternalEventID)
	if err == nil {
		return false, existing, nil
	}
	if !ierr.IsNotFound(err) {
		return false, nil, err
	}
	if err := s.InMemoryStore.Create(ctx, event.ID, event); err != nil {
		return false, nil, err
	}
	return true, event, nil
}

func (s *InMemoryWebhookEventStore) GetByExternalID(ctx context.Context, provider types.ProviderType, externalEventID string) (*webhookevent.WebhookEvent, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, e *webhookevent.WebhookEvent) bool {
		return e.Provider == provider && e.ExternalEventID == externalEventID
	})
	if len(items) == 0 {
		return nil, ierr.NewError("webhook event not found").
			WithHintf("Event %s from %s was not found", externalEventID, provider).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemoryWebhookEventStore) ListByStatus(ctx context.Context, status types.WebhookEventStatus, limit int) ([]*webhookevent.WebhookEvent, error) {
	items, err := s.InMemoryStore.List(ctx, func(ctx context.Context, e *webhookevent.WebhookEvent) bool {
		return e.EventStatus == status
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *InMemoryWebhookEventStore) Update(ctx context.Context, event *webhookevent.WebhookEvent) error {
	event.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, event.ID, event)
}
