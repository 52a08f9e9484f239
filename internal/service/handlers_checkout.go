package service

import (
	"context"
	"encoding/json"

	"github.com/billingbridge/billingbridge/internal/domain/billingcustomer"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// checkoutEventHandler runs when a hosted checkout completes. It persists the
// customer-to-user link (the anchor for later invoice events) and materializes
// the subscription immediately instead of waiting for the subscription event.
type checkoutEventHandler struct {
	ServiceParams
	subscriptions SubscriptionService
}

func NewCheckoutEventHandler(params ServiceParams, subscriptions SubscriptionService) EventHandler {
	return &checkoutEventHandler{
		ServiceParams: params,
		subscriptions: subscriptions,
	}
}

func (h *checkoutEventHandler) EventTypes() []string {
	return []string{
		// Stripe
		"checkout.session.completed",
		// Paddle
		"transaction.completed",
	}
}

func (h *checkoutEventHandler) Handle(ctx context.Context, provider types.ProviderType, ev *types.NormalizedEvent) error {
	var body struct {
		ID             string            `json:"id"`
		Customer       string            `json:"customer"`        // Stripe
		CustomerID     string            `json:"customer_id"`     // Paddle
		Subscription   string            `json:"subscription"`    // Stripe
		SubscriptionID string            `json:"subscription_id"` // Paddle
		CustomerEmail  string            `json:"customer_email"`
		Metadata       map[string]string `json:"metadata"`    // Stripe
		CustomData     map[string]string `json:"custom_data"` // Paddle
	}
	if err := json.Unmarshal(ev.Payload, &body); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed checkout payload").
			Mark(ierr.ErrValidation)
	}

	metadata := types.Metadata(body.Metadata).Merge(body.CustomData)
	customerID := firstNonEmpty(body.Customer, body.CustomerID)
	subscriptionID := firstNonEmpty(body.Subscription, body.SubscriptionID)

	if uid := metadata.Get("user_id"); uid != "" && customerID != "" {
		link := &billingcustomer.BillingCustomer{
			ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CUSTOMER),
			Provider:           provider,
			ProviderCustomerID: customerID,
			UserID:             uid,
			Email:              body.CustomerEmail,
			Metadata:           metadata,
			BaseModel:          types.GetDefaultBaseModel(ctx),
		}
		if _, _, err := h.BillingCustomerRepo.CreateOrGet(ctx, link); err != nil {
			return err
		}
	}

	if subscriptionID == "" {
		// One-time purchase checkouts carry no subscription
		return nil
	}

	_, err := h.subscriptions.SyncFromProvider(ctx, provider, subscriptionID, ResolveHints{
		Metadata:               metadata,
		SubscriptionProviderID: subscriptionID,
		CustomerProviderID:     customerID,
	})
	return err
}
