package stripe

import (
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// VerifyWebhook checks the Stripe-Signature header and extracts the
// normalized envelope. Stripe nests the object body under data.object.
func (p *Provider) VerifyWebhook(payload []byte, signature string) (*types.NormalizedEvent, error) {
	if signature == "" {
		return nil, ierr.NewError("missing signature header").
			WithHint("Stripe-Signature header is required").
			Mark(ierr.ErrWebhookValidationFailed)
	}

	event, err := stripewebhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, stripewebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		p.logger.Errorw("stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrWebhookValidationFailed)
	}

	return &types.NormalizedEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: event.Data.Raw,
	}, nil
}
