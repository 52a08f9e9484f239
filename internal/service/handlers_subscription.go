package service

import (
	"context"
	"encoding/json"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// subscriptionEventHandler reacts to provider subscription lifecycle events
// by pulling the authoritative state and upserting the local record. The
// payload is only mined for correlation hints; the provider API is the source
// of truth for the state itself.
type subscriptionEventHandler struct {
	subscriptions SubscriptionService
}

func NewSubscriptionEventHandler(subscriptions SubscriptionService) EventHandler {
	return &subscriptionEventHandler{subscriptions: subscriptions}
}

func (h *subscriptionEventHandler) EventTypes() []string {
	return []string{
		// Stripe
		"customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted",
		// Paddle
		"subscription.created",
		"subscription.updated",
		"subscription.canceled",
		"subscription.past_due",
	}
}

func (h *subscriptionEventHandler) Handle(ctx context.Context, provider types.ProviderType, ev *types.NormalizedEvent) error {
	var body struct {
		ID         string            `json:"id"`
		Customer   string            `json:"customer"`    // Stripe
		CustomerID string            `json:"customer_id"` // Paddle
		Metadata   map[string]string `json:"metadata"`    // Stripe
		CustomData map[string]string `json:"custom_data"` // Paddle
	}
	if err := json.Unmarshal(ev.Payload, &body); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed subscription payload").
			Mark(ierr.ErrValidation)
	}
	if body.ID == "" {
		return ierr.NewError("payload carries no subscription id").
			WithHint("Malformed subscription payload").
			Mark(ierr.ErrValidation)
	}

	hints := ResolveHints{
		Metadata:               types.Metadata(body.Metadata).Merge(body.CustomData),
		SubscriptionProviderID: body.ID,
		CustomerProviderID:     firstNonEmpty(body.Customer, body.CustomerID),
	}

	_, err := h.subscriptions.SyncFromProvider(ctx, provider, body.ID, hints)
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
