package repository

import (
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
	postgresRepo "github.com/billingbridge/billingbridge/internal/repository/postgres"
)

func NewProductRepository(db *postgres.DB, logger *logger.Logger) product.Repository {
	return postgresRepo.NewProductRepository(db, logger)
}

func NewPriceRepository(db *postgres.DB, logger *logger.Logger) price.Repository {
	return postgresRepo.NewPriceRepository(db, logger)
}

func NewProviderMappingRepository(db *postgres.DB, logger *logger.Logger) providermapping.Repository {
	return postgresRepo.NewProviderMappingRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return postgresRepo.NewWebhookEventRepository(db, logger)
}

func NewOutboxRepository(db *postgres.DB, logger *logger.Logger) outbox.Repository {
	return postgresRepo.NewOutboxRepository(db, logger)
}

func NewDiscountRepository(db *postgres.DB, logger *logger.Logger) discount.Repository {
	return postgresRepo.NewDiscountRepository(db, logger)
}

func NewBillingCustomerRepository(db *postgres.DB, logger *logger.Logger) billingcustomer.Repository {
	return postgresRepo.NewBillingCustomerRepository(db, logger)
}
