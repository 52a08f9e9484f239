package testutil

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/outbox"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// InMemoryOutboxStore implements outbox.Repository
type InMemoryOutboxStore struct {
	*InMemoryStore[*outbox.Entry]
}

func NewInMemoryOutboxStore() *InMemoryOutboxStore {
	return &InMemoryOutboxStore{
		InMemoryStore: NewInMemoryStore[*outbox.Entry](),
	}
}

// FirstOrCreate mirrors the unique constraint on
// (provider, entity_type, provider_entity_id)
func (s *InMemoryOutboxStore) FirstOrCreate(ctx context.Context, entry *outbox.Entry) (bool, *outbox.Entry, error) {
	existing, err := s.GetByKey(ctx, entry.Provider, entry.EntityType, entry.ProviderEntityID)
	if err == nil {
		return false, existing, nil
	}
	if !ierr.IsNotFound(err) {
		return false, nil, err
	}
	if err := s.InMemoryStore.Create(ctx, entry.ID, entry); err != nil {
		return false, nil, err
	}
	return true, entry, nil
}

func (s *InMemoryOutboxStore) GetByKey(ctx context.Context, provider types.ProviderType, entityType types.OutboxEntityType, providerEntityID string) (*outbox.Entry, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, e *outbox.Entry) bool {
		return e.Provider == provider && e.EntityType == entityType && e.ProviderEntityID == providerEntityID
	})
	if len(items) == 0 {
		return nil, ierr.NewError("outbox entry not found").
			WithHintf("Entry for %s %s %s was not found", provider, entityType, providerEntityID).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemoryOutboxStore) ListDue(ctx context.Context, asOf time.Time, limit int) ([]*outbox.Entry, error) {
	items, err := s.InMemoryStore.List(ctx, func(ctx context.Context, e *outbox.Entry) bool {
		switch e.OutboxStatus {
		case types.OutboxStatusPending:
			return true
		case types.OutboxStatusFailed:
			return e.Attempts < outbox.MaxAttempts && e.NextAttemptAt != nil && !asOf.Before(*e.NextAttemptAt)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *InMemoryOutboxStore) Update(ctx context.Context, entry *outbox.Entry) error {
	entry.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, entry.ID, entry)
}
