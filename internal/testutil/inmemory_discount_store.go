package testutil

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/discount"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
)

// InMemoryDiscountStore implements discount.Repository
type InMemoryDiscountStore struct {
	*InMemoryStore[*discount.Discount]
}

func NewInMemoryDiscountStore() *InMemoryDiscountStore {
	return &InMemoryDiscountStore{
		InMemoryStore: NewInMemoryStore[*discount.Discount](),
	}
}

func (s *InMemoryDiscountStore) Create(ctx context.Context, d *discount.Discount) error {
	return s.InMemoryStore.Create(ctx, d.ID, d)
}

func (s *InMemoryDiscountStore) GetByLookupKey(ctx context.Context, lookupKey string) (*discount.Discount, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, d *discount.Discount) bool {
		return d.LookupKey == lookupKey
	})
	if len(items) == 0 {
		return nil, ierr.NewError("discount not found").
			WithHintf("Discount with lookup key %s was not found", lookupKey).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemoryDiscountStore) Update(ctx context.Context, d *discount.Discount) error {
	d.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, d.ID, d)
}
