package testutil

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/providermapping"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// InMemoryProviderMappingStore implements providermapping.Repository
type InMemoryProviderMappingStore struct {
	*InMemoryStore[*providermapping.ProviderMapping]
}

func NewInMemoryProviderMappingStore() *InMemoryProviderMappingStore {
	return &InMemoryProviderMappingStore{
		InMemoryStore: NewInMemoryStore[*providermapping.ProviderMapping](),
	}
}

func (s *InMemoryProviderMappingStore) Create(ctx context.Context, m *providermapping.ProviderMapping) error {
	return s.InMemoryStore.Create(ctx, m.ID, m)
}

// CreateOrGet mirrors the unique constraint on
// (provider, entity_type, provider_entity_id)
func (s *InMemoryProviderMappingStore) CreateOrGet(ctx context.Context, m *providermapping.ProviderMapping) (bool, *providermapping.ProviderMapping, error) {
	existing, err := s.GetByProviderEntityID(ctx, m.Provider, m.EntityType, m.ProviderEntityID)
	if err == nil {
		return false, existing, nil
	}
	if !ierr.IsNotFound(err) {
		return false, nil, err
	}
	if err := s.InMemoryStore.Create(ctx, m.ID, m); err != nil {
		return false, nil, err
	}
	return true, m, nil
}

func (s *InMemoryProviderMappingStore) GetByProviderEntityID(ctx context.Context, provider types.ProviderType, entityType types.MappingEntityType, providerEntityID string) (*providermapping.ProviderMapping, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, m *providermapping.ProviderMapping) bool {
		return m.Provider == provider && m.EntityType == entityType && m.ProviderEntityID == providerEntityID
	})
	if len(items) == 0 {
		return nil, ierr.NewError("provider mapping not found").
			WithHintf("Mapping for %s %s %s was not found", provider, entityType, providerEntityID).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemoryProviderMappingStore) GetByEntity(ctx context.Context, entityType types.MappingEntityType, entityID string) ([]*providermapping.ProviderMapping, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, m *providermapping.ProviderMapping) bool {
		return m.EntityType == entityType && m.EntityID == entityID
	})
}

func (s *InMemoryProviderMappingStore) Update(ctx context.Context, m *providermapping.ProviderMapping) error {
	m.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, m.ID, m)
}

func (s *InMemoryProviderMappingStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}
