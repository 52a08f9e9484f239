package stripe

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v82"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

func (p *Provider) GetSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	sub, err := p.client.V1Subscriptions.Retrieve(ctx, providerID, nil)
	if err != nil {
		return nil, p.wrapErr(err, "subscription.retrieve", map[string]any{"provider_id": providerID})
	}
	return p.toState(sub), nil
}

// CancelSubscription schedules cancellation at the end of the current billing
// period; the subscription stays live until then.
func (p *Provider) CancelSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	sub, err := p.client.V1Subscriptions.Update(ctx, providerID, &stripeapi.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripeapi.Bool(true),
	})
	if err != nil {
		return nil, p.wrapErr(err, "subscription.cancel", map[string]any{"provider_id": providerID})
	}
	return p.toState(sub), nil
}

func (p *Provider) ResumeSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	sub, err := p.client.V1Subscriptions.Update(ctx, providerID, &stripeapi.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripeapi.Bool(false),
	})
	if err != nil {
		return nil, p.wrapErr(err, "subscription.resume", map[string]any{"provider_id": providerID})
	}
	return p.toState(sub), nil
}

// UpdateSubscriptionPrice swaps the priced item server-side
func (p *Provider) UpdateSubscriptionPrice(ctx context.Context, providerID, priceProviderID string) (*types.SubscriptionState, error) {
	if priceProviderID == "" {
		return nil, ierr.NewError("price id is required").
			WithHint("A provider price id is required for a plan change").
			Mark(ierr.ErrMissingPriceID)
	}

	current, err := p.client.V1Subscriptions.Retrieve(ctx, providerID, nil)
	if err != nil {
		return nil, p.wrapErr(err, "subscription.retrieve", map[string]any{"provider_id": providerID})
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, ierr.NewError("subscription has no items").
			WithHint("Stripe subscription must have at least one item").
			Mark(ierr.ErrProviderActionFailed)
	}

	sub, err := p.client.V1Subscriptions.Update(ctx, providerID, &stripeapi.SubscriptionUpdateParams{
		Items: []*stripeapi.SubscriptionUpdateItemParams{
			{
				ID:    stripeapi.String(current.Items.Data[0].ID),
				Price: stripeapi.String(priceProviderID),
			},
		},
		ProrationBehavior: stripeapi.String("create_prorations"),
	})
	if err != nil {
		return nil, p.wrapErr(err, "subscription.update_price", map[string]any{"provider_id": providerID})
	}
	return p.toState(sub), nil
}

func (p *Provider) UpdateSubscriptionQuantity(ctx context.Context, providerID string, quantity int) (*types.SubscriptionState, error) {
	current, err := p.client.V1Subscriptions.Retrieve(ctx, providerID, nil)
	if err != nil {
		return nil, p.wrapErr(err, "subscription.retrieve", map[string]any{"provider_id": providerID})
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, ierr.NewError("subscription has no items").
			WithHint("Stripe subscription must have at least one item").
			Mark(ierr.ErrProviderActionFailed)
	}

	sub, err := p.client.V1Subscriptions.Update(ctx, providerID, &stripeapi.SubscriptionUpdateParams{
		Items: []*stripeapi.SubscriptionUpdateItemParams{
			{
				ID:       stripeapi.String(current.Items.Data[0].ID),
				Quantity: stripeapi.Int64(int64(quantity)),
			},
		},
	})
	if err != nil {
		return nil, p.wrapErr(err, "subscription.update_quantity", map[string]any{"provider_id": providerID})
	}
	return p.toState(sub), nil
}

// toState normalizes a Stripe subscription into the provider-agnostic
// snapshot. Billing period fields live on the subscription item in current
// Stripe API versions.
func (p *Provider) toState(sub *stripeapi.Subscription) *types.SubscriptionState {
	state := &types.SubscriptionState{
		ProviderID:  sub.ID,
		Status:      mapStatus(sub),
		TrialEndsAt: types.CoerceUnixTime(sub.TrialEnd),
		CanceledAt:  types.CoerceUnixTime(sub.CanceledAt),
		Metadata:    sub.Metadata,
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		state.Quantity = int(item.Quantity)
		if item.Price != nil {
			state.PriceProviderID = item.Price.ID
		}
		periodEnd := types.CoerceUnixTime(item.CurrentPeriodEnd)
		if sub.CancelAtPeriodEnd {
			state.EndsAt = periodEnd
		} else {
			state.RenewsAt = periodEnd
		}
	}

	return state
}

func mapStatus(sub *stripeapi.Subscription) types.SubscriptionStatus {
	switch sub.Status {
	case stripeapi.SubscriptionStatusTrialing:
		return types.SubscriptionStatusTrialing
	case stripeapi.SubscriptionStatusActive:
		if sub.CancelAtPeriodEnd {
			return types.SubscriptionStatusCanceled
		}
		return types.SubscriptionStatusActive
	case stripeapi.SubscriptionStatusPastDue, stripeapi.SubscriptionStatusUnpaid:
		return types.SubscriptionStatusPastDue
	case stripeapi.SubscriptionStatusCanceled, stripeapi.SubscriptionStatusIncompleteExpired:
		return types.SubscriptionStatusEnded
	default:
		return types.SubscriptionStatusActive
	}
}
