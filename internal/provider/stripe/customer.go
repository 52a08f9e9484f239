package stripe

import (
	"context"

	"github.com/billingbridge/billingbridge/internal/types"
)

// GetCustomer fetches a customer object from Stripe. Used by the webhook
// resolution fallback when an event references a customer with no local
// mapping yet; callers bound it with a short context timeout.
func (p *Provider) GetCustomer(ctx context.Context, providerCustomerID string) (*types.ProviderCustomer, error) {
	cust, err := p.client.V1Customers.Retrieve(ctx, providerCustomerID, nil)
	if err != nil {
		return nil, p.wrapErr(err, "customer.retrieve", map[string]any{"provider_customer_id": providerCustomerID})
	}

	return &types.ProviderCustomer{
		ProviderCustomerID: cust.ID,
		Email:              cust.Email,
		Metadata:           cust.Metadata,
	}, nil
}
