package testutil

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/product"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// InMemoryProductStore implements product.Repository
type InMemoryProductStore struct {
	*InMemoryStore[*product.Product]
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		InMemoryStore: NewInMemoryStore[*product.Product](),
	}
}

func (s *InMemoryProductStore) Create(ctx context.Context, p *product.Product) error {
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryProductStore) GetByLookupKey(ctx context.Context, lookupKey string) (*product.Product, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, p *product.Product) bool {
		return p.LookupKey == lookupKey && p.Status != types.StatusDeleted
	})
	if len(items) == 0 {
		return nil, ierr.NewError("product not found").
			WithHintf("Product with lookup key %s was not found", lookupKey).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemoryProductStore) List(ctx context.Context) ([]*product.Product, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, p *product.Product) bool {
		return p.Status != types.StatusDeleted
	})
}

func (s *InMemoryProductStore) Update(ctx context.Context, p *product.Product) error {
	p.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, p.ID, p)
}

// Delete soft-deletes, mirroring the postgres repository
func (s *InMemoryProductStore) Delete(ctx context.Context, id string) error {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Status = types.StatusDeleted
	p.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, p)
}
