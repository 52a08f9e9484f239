package service

import (
	"github.com/billingbridge/billingbridge/internal/testutil"
)

// newTestParams assembles ServiceParams from a base suite's fixtures
func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		Registry:            s.GetRegistry(),
		Events:              s.GetPublisher(),
		DB:                  s.GetDB(),
		ProductRepo:         stores.ProductRepo,
		PriceRepo:           stores.PriceRepo,
		MappingRepo:         stores.MappingRepo,
		SubscriptionRepo:    stores.SubscriptionRepo,
		WebhookEventRepo:    stores.WebhookEventRepo,
		OutboxRepo:          stores.OutboxRepo,
		DiscountRepo:        stores.DiscountRepo,
		BillingCustomerRepo: stores.BillingCustomerRepo,
	}
}
