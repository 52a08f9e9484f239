package billingcustomer

import (
	"context"

	"github.com/billingbridge/billingbridge/internal/types"
)

// Repository defines the interface for billing customer data access.
// CreateOrGet must be backed by a unique constraint on
// (provider, provider_customer_id) so concurrent self-heals cannot race.
type Repository interface {
	CreateOrGet(ctx context.Context, customer *BillingCustomer) (created bool, out *BillingCustomer, err error)
	Get(ctx context.Context, id string) (*BillingCustomer, error)
	GetByProviderCustomerID(ctx context.Context, provider types.ProviderType, providerCustomerID string) (*BillingCustomer, error)
	GetByUserID(ctx context.Context, provider types.ProviderType, userID string) (*BillingCustomer, error)
	Update(ctx context.Context, customer *BillingCustomer) error
}
