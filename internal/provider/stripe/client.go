package stripe

import (
	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/billingbridge/billingbridge/internal/config"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Provider implements both the catalog and runtime surfaces for Stripe
type Provider struct {
	client        *stripeapi.Client
	webhookSecret string
	logger        *logger.Logger
}

// NewProvider creates a Stripe provider from configuration
func NewProvider(cfg config.StripeConfig, logger *logger.Logger) (*Provider, error) {
	if cfg.SecretKey == "" {
		return nil, ierr.NewError("stripe secret key missing").
			WithHint("Stripe is enabled but no secret key is configured").
			Mark(ierr.ErrMissingConfiguration)
	}
	if cfg.WebhookSecret == "" {
		return nil, ierr.NewError("stripe webhook secret missing").
			WithHint("Stripe is enabled but no webhook secret is configured").
			Mark(ierr.ErrMissingConfiguration)
	}

	return &Provider{
		client:        stripeapi.NewClient(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}, nil
}

func (p *Provider) Name() types.ProviderType {
	return types.ProviderStripe
}

// wrapErr converts a Stripe API error into the internal taxonomy. Missing
// remote objects map to ErrNotFound so deletion processing can treat
// "already absent" as success.
func (p *Provider) wrapErr(err error, action string, details map[string]any) error {
	if err == nil {
		return nil
	}

	if stripeErr, ok := err.(*stripeapi.Error); ok && stripeErr.Code == stripeapi.ErrorCodeResourceMissing {
		return ierr.WithError(err).
			WithHintf("Stripe object not found during %s", action).
			Mark(ierr.ErrNotFound)
	}

	p.logger.Errorw("stripe api call failed", "action", action, "error", err, "details", details)

	return ierr.WithError(err).
		WithHint("Billing provider error").
		WithReportableDetails(map[string]any{
			"provider": types.ProviderStripe,
			"action":   action,
		}).
		Mark(ierr.ErrProviderError)
}
