package service

import (
	"github.com/billingbridge/billingbridge/internal/config"
	"github.com/billingbridge/billingbridge/internal/domain/billingcustomer"
	"github.com/billingbridge/billingbridge/internal/domain/discount"
	"github.com/billingbridge/billingbridge/internal/domain/outbox"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	"github.com/billingbridge/billingbridge/internal/domain/providermapping"
	"github.com/billingbridge/billingbridge/internal/domain/subscription"
	"github.com/billingbridge/billingbridge/internal/domain/webhookevent"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/postgres"
	"github.com/billingbridge/billingbridge/internal/provider"
	"github.com/billingbridge/billingbridge/internal/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger   *logger.Logger
	Config   *config.Configuration
	Registry *provider.Registry
	Events   publisher.EventPublisher
	DB       postgres.TxRunner

	// Repositories
	ProductRepo         product.Repository
	PriceRepo           price.Repository
	MappingRepo         providermapping.Repository
	SubscriptionRepo    subscription.Repository
	WebhookEventRepo    webhookevent.Repository
	OutboxRepo          outbox.Repository
	DiscountRepo        discount.Repository
	BillingCustomerRepo billingcustomer.Repository
}
