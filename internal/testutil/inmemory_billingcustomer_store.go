package testutil

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/billingcustomer"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// InMemoryBillingCustomerStore implements billingcustomer.Repository
type InMemoryBillingCustomerStore struct {
	*InMemoryStore[*billingcustomer.BillingCustomer]
}

func NewInMemoryBillingCustomerStore() *InMemoryBillingCustomerStore {
	return &InMemoryBillingCustomerStore{
		InMemoryStore: NewInMemoryStore[*billingcustomer.BillingCustomer](),
	}
}

// CreateOrGet mirrors the unique constraint on (provider, provider_customer_id)
func (s *InMemoryBillingCustomerStore) CreateOrGet(ctx context.Context, c *billingcustomer.BillingCustomer) (bool, *billingcustomer.BillingCustomer, error) {
	existing, err := s.GetByProviderCustomerID(ctx, c.Provider, c.ProviderCustomerID)
	if err == nil {
		return false, existing, nil
	}
	if !ierr.IsNotFound(err) {
		return false, nil, err
	}
	if err := s.InMemoryStore.Create(ctx, c.ID, c); err != nil {
		return false, nil, err
	}
	return true, c, nil
}

func (s *InMemoryBillingCustomerStore) GetByProviderCustomerID(ctx context.Context, provider types.ProviderType, providerCustomerID string) (*billingcustomer.BillingCustomer, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, c *billingcustomer.BillingCustomer) bool {
		return c.Provider == provider && c.ProviderCustomerID == providerCustomerID
	})
	if len(items) == 0 {
		return nil, ierr.NewError("billing customer not found").
			WithHintf("Customer %s at %s was not found", providerCustomerID, provider).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemoryBillingCustomerStore) GetByUserID(ctx context.Context, provider types.ProviderType, userID string) (*billingcustomer.BillingCustomer, error) {
	items, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, c *billingcustomer.BillingCustomer) bool {
		return c.Provider == provider && c.UserID == userID
	})
	if len(items) == 0 {
		return nil, ierr.NewError("billing customer not found").
			WithHintf("Customer for user %s at %s was not found", userID, provider).
			Mark(ierr.ErrNotFound)
	}
	return items[0], nil
}

func (s *InMemoryBillingCustomerStore) Update(ctx context.Context, c *billingcustomer.BillingCustomer) error {
	c.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, c.ID, c)
}
