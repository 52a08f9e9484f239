package paddle

import (
	"context"
	"net/http"

	"github.com/billingbridge/billingbridge/internal/types"
)

func (p *Provider) GetCustomer(ctx context.Context, providerCustomerID string) (*types.ProviderCustomer, error) {
	var resp struct {
		Data paddleCustomer `json:"data"`
	}
	if err := p.do(ctx, http.MethodGet, "/customers/"+providerCustomerID, nil, &resp); err != nil {
		return nil, err
	}
	return &types.ProviderCustomer{
		ProviderCustomerID: resp.Data.ID,
		Email:              resp.Data.Email,
		Metadata:           resp.Data.CustomData,
	}, nil
}
