package paddle

import (
	"context"
	"net/http"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// CreateCheckout creates a transaction whose hosted checkout URL the caller
// redirects to. Correlation ids travel in custom data so later webhooks can
// resolve the user without a mapping lookup.
func (p *Provider) CreateCheckout(ctx context.Context, req *types.CheckoutRequest) (*types.CheckoutSession, error) {
	if req.PriceProviderID == "" {
		return nil, ierr.NewError("price id is required").
			WithHint("Checkout needs a provider price id").
			Mark(ierr.ErrMissingPriceID)
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"price_id": req.PriceProviderID, "quantity": quantity},
		},
		"custom_data": types.Metadata{
			"user_id":  req.UserID,
			"plan_key": req.PlanKey,
		}.Merge(req.Metadata),
		"checkout": map[string]interface{}{
			"url": req.SuccessURL,
		},
	}

	var resp struct {
		Data paddleTransaction `json:"data"`
	}
	if err := p.do(ctx, http.MethodPost, "/transactions", body, &resp); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create checkout session").
			WithReportableDetails(map[string]any{
				"provider": types.ProviderPaddle,
				"plan_key": req.PlanKey,
			}).
			Mark(ierr.ErrCheckoutFailed)
	}

	return &types.CheckoutSession{
		ProviderSessionID: resp.Data.ID,
		URL:               resp.Data.Checkout.URL,
	}, nil
}
