package stripe

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v82"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// CreateCheckout creates a hosted checkout session. Correlation ids travel in
// both session and subscription metadata so later webhooks can resolve the
// user without a mapping lookup.
func (p *Provider) CreateCheckout(ctx context.Context, req *types.CheckoutRequest) (*types.CheckoutSession, error) {
	if req.PriceProviderID == "" {
		return nil, ierr.NewError("price id is required").
			WithHint("Checkout needs a provider price id").
			Mark(ierr.ErrMissingPriceID)
	}

	quantity := int64(req.Quantity)
	if quantity < 1 {
		quantity = 1
	}

	metadata := types.Metadata{
		"user_id":  req.UserID,
		"plan_key": req.PlanKey,
	}.Merge(req.Metadata)

	params := &stripeapi.CheckoutSessionCreateParams{
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		SuccessURL: stripeapi.String(req.SuccessURL),
		CancelURL:  stripeapi.String(req.CancelURL),
		LineItems: []*stripeapi.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripeapi.String(req.PriceProviderID),
				Quantity: stripeapi.Int64(quantity),
			},
		},
		Metadata: metadata,
		SubscriptionData: &stripeapi.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: metadata,
		},
	}

	session, err := p.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create checkout session").
			WithReportableDetails(map[string]any{
				"provider": types.ProviderStripe,
				"plan_key": req.PlanKey,
			}).
			Mark(ierr.ErrCheckoutFailed)
	}

	return &types.CheckoutSession{
		ProviderSessionID: session.ID,
		URL:               session.URL,
	}, nil
}
