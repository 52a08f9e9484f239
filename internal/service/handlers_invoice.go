package service

import (
	"context"
	"encoding/json"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// invoiceEventHandler reacts to payment outcomes. Both the failure and the
// recovery path re-pull provider state, which already reflects past_due or
// the return to active.
type invoiceEventHandler struct {
	ServiceParams
	subscriptions SubscriptionService
}

func NewInvoiceEventHandler(params ServiceParams, subscriptions SubscriptionService) EventHandler {
	return &invoiceEventHandler{
		ServiceParams: params,
		subscriptions: subscriptions,
	}
}

func (h *invoiceEventHandler) EventTypes() []string {
	return []string{
		// Stripe
		"invoice.paid",
		"invoice.payment_failed",
		// Paddle
		"transaction.payment_failed",
	}
}

func (h *invoiceEventHandler) Handle(ctx context.Context, provider types.ProviderType, ev *types.NormalizedEvent) error {
	var body struct {
		ID             string            `json:"id"`
		Customer       string            `json:"customer"`        // Stripe
		CustomerID     string            `json:"customer_id"`     // Paddle
		Subscription   string            `json:"subscription"`    // Stripe
		SubscriptionID string            `json:"subscription_id"` // Paddle
		Metadata       map[string]string `json:"metadata"`
		CustomData     map[string]string `json:"custom_data"`
	}
	if err := json.Unmarshal(ev.Payload, &body); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed invoice payload").
			Mark(ierr.ErrValidation)
	}

	subscriptionID := firstNonEmpty(body.Subscription, body.SubscriptionID)
	if subscriptionID == "" {
		// Invoices for one-time purchases carry no subscription
		h.Logger.Debugw("invoice event without subscription",
			"provider", provider,
			"event_id", ev.ID,
		)
		return nil
	}

	_, err := h.subscriptions.SyncFromProvider(ctx, provider, subscriptionID, ResolveHints{
		Metadata:               types.Metadata(body.Metadata).Merge(body.CustomData),
		SubscriptionProviderID: subscriptionID,
		CustomerProviderID:     firstNonEmpty(body.Customer, body.CustomerID),
	})
	return err
}
