package paddle

import (
	"context"
	"net/http"
	"time"

	"github.com/billingbridge/billingbridge/internal/types"
)

func (p *Provider) GetSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	var resp struct {
		Data paddleSubscription `json:"data"`
	}
	if err := p.do(ctx, http.MethodGet, "/subscriptions/"+providerID, nil, &resp); err != nil {
		return nil, err
	}
	return p.toState(&resp.Data), nil
}

// CancelSubscription schedules cancellation at the end of the current billing
// period; access continues until then.
func (p *Provider) CancelSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	body := map[string]interface{}{
		"effective_from": "next_billing_period",
	}
	var resp struct {
		Data paddleSubscription `json:"data"`
	}
	if err := p.do(ctx, http.MethodPost, "/subscriptions/"+providerID+"/cancel", body, &resp); err != nil {
		return nil, err
	}
	return p.toState(&resp.Data), nil
}

// ResumeSubscription removes a pending scheduled cancellation
func (p *Provider) ResumeSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	body := map[string]interface{}{
		"scheduled_change": nil,
	}
	var resp struct {
		Data paddleSubscription `json:"data"`
	}
	if err := p.do(ctx, http.MethodPatch, "/subscriptions/"+providerID, body, &resp); err != nil {
		return nil, err
	}
	return p.toState(&resp.Data), nil
}

// UpdateSubscriptionPrice swaps the subscription onto a new price with an
// immediate prorated charge.
func (p *Provider) UpdateSubscriptionPrice(ctx context.Context, providerID, priceProviderID string) (*types.SubscriptionState, error) {
	current, err := p.GetSubscription(ctx, providerID)
	if err != nil {
		return nil, err
	}
	quantity := current.Quantity
	if quantity < 1 {
		quantity = 1
	}

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"price_id": priceProviderID, "quantity": quantity},
		},
		"proration_billing_mode": "prorated_immediately",
	}
	var resp struct {
		Data paddleSubscription `json:"data"`
	}
	if err := p.do(ctx, http.MethodPatch, "/subscriptions/"+providerID, body, &resp); err != nil {
		return nil, err
	}
	return p.toState(&resp.Data), nil
}

func (p *Provider) UpdateSubscriptionQuantity(ctx context.Context, providerID string, quantity int) (*types.SubscriptionState, error) {
	current, err := p.GetSubscription(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if current.PriceProviderID == "" {
		return current, nil
	}

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"price_id": current.PriceProviderID, "quantity": quantity},
		},
		"proration_billing_mode": "prorated_immediately",
	}
	var resp struct {
		Data paddleSubscription `json:"data"`
	}
	if err := p.do(ctx, http.MethodPatch, "/subscriptions/"+providerID, body, &resp); err != nil {
		return nil, err
	}
	return p.toState(&resp.Data), nil
}

// toState maps a Paddle subscription into the provider-agnostic snapshot
func (p *Provider) toState(sub *paddleSubscription) *types.SubscriptionState {
	state := &types.SubscriptionState{
		ProviderID: sub.ID,
		Status:     mapStatus(sub),
		Quantity:   1,
		Metadata:   sub.CustomData,
	}
	if state.Metadata == nil {
		state.Metadata = map[string]string{}
	}
	if sub.CustomerID != "" {
		state.Metadata["customer_id"] = sub.CustomerID
	}

	if len(sub.Items) > 0 {
		item := sub.Items[0]
		state.PriceProviderID = item.Price.ID
		if item.Quantity > 0 {
			state.Quantity = item.Quantity
		}
	}

	periodEnd := parseTime(periodEndOf(sub))
	if pendingCancel(sub) {
		// Cancellation is scheduled: the period end is the termination date
		state.EndsAt = effectiveCancelAt(sub, periodEnd)
	} else {
		state.RenewsAt = periodEnd
	}

	if sub.Status == "trialing" && len(sub.Items) > 0 {
		state.TrialEndsAt = parseTimePtr(sub.Items[0].TrialEnd)
	}
	state.CanceledAt = parseTimePtr(sub.CanceledAt)

	return state
}

func mapStatus(sub *paddleSubscription) types.SubscriptionStatus {
	if pendingCancel(sub) {
		return types.SubscriptionStatusCanceled
	}
	switch sub.Status {
	case "trialing":
		return types.SubscriptionStatusTrialing
	case "active":
		return types.SubscriptionStatusActive
	case "past_due", "paused":
		return types.SubscriptionStatusPastDue
	case "canceled":
		return types.SubscriptionStatusEnded
	default:
		return types.SubscriptionStatusEnded
	}
}

func pendingCancel(sub *paddleSubscription) bool {
	if sub.Status == "canceled" {
		return false
	}
	return sub.ScheduledChange != nil && sub.ScheduledChange.Action == "cancel"
}

func effectiveCancelAt(sub *paddleSubscription, periodEnd *time.Time) *time.Time {
	if sub.ScheduledChange != nil {
		if at := parseTime(sub.ScheduledChange.EffectiveAt); at != nil {
			return at
		}
	}
	return periodEnd
}

func periodEndOf(sub *paddleSubscription) string {
	if sub.CurrentBillingPeriod == nil {
		return ""
	}
	return sub.CurrentBillingPeriod.EndsAt
}

func parseTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimePtr(v *string) *time.Time {
	if v == nil {
		return nil
	}
	return parseTime(*v)
}
