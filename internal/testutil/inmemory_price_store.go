package testutil

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/price"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// InMemoryPriceStore implements price.Repository
type InMemoryPriceStore struct {
	*InMemoryStore[*price.Price]
}

func NewInMemoryPriceStore() *InMemoryPriceStore {
	return &InMemoryPriceStore{
		InMemoryStore: NewInMemoryStore[*price.Price](),
	}
}

func (s *InMemoryPriceStore) Create(ctx context.Context, p *price.Price) error {
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPriceStore) GetByLookupKey(ctx context.Context, lookupKey string) (*price.Price, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, p *price.Price) bool {
		return p.LookupKey == lookupKey && p.Status != types.StatusDeleted
	})
	if len(items) == 0 {
		return nil, ierr.NewError("price not found").
			WithHintf("Price with lookup key %s was not found", lookupKey).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemoryPriceStore) GetByProductID(ctx context.Context, productID string) ([]*price.Price, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, p *price.Price) bool {
		return p.ProductID == productID && p.Status != types.StatusDeleted
	})
}

func (s *InMemoryPriceStore) Update(ctx context.Context, p *price.Price) error {
	p.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, p.ID, p)
}

// Delete soft-deletes, mirroring the postgres repository
func (s *InMemoryPriceStore) Delete(ctx context.Context, id string) error {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Status = types.StatusDeleted
	p.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, p)
}
