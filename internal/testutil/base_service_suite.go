package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

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
	"github.com/billingbridge/billingbridge/internal/provider"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	ProductRepo         product.Repository
	PriceRepo           price.Repository
	MappingRepo         providermapping.Repository
	SubscriptionRepo    subscription.Repository
	WebhookEventRepo    webhookevent.Repository
	OutboxRepo          outbox.Repository
	DiscountRepo        discount.Repository
	BillingCustomerRepo billingcustomer.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: fresh in-memory stores, a recording publisher and a registry with
// one fake provider per platform.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	db        *InMemoryTxRunner
	publisher *InMemoryEventPublisher
	registry  *provider.Registry
	stripe    *FakeProvider
	paddle    *FakeProvider
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.logger = logger.NewNopLogger()
	s.config = config.GetDefaultConfig()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		ProductRepo:         NewInMemoryProductStore(),
		PriceRepo:           NewInMemoryPriceStore(),
		MappingRepo:         NewInMemoryProviderMappingStore(),
		SubscriptionRepo:    NewInMemorySubscriptionStore(),
		WebhookEventRepo:    NewInMemoryWebhookEventStore(),
		OutboxRepo:          NewInMemoryOutboxStore(),
		DiscountRepo:        NewInMemoryDiscountStore(),
		BillingCustomerRepo: NewInMemoryBillingCustomerStore(),
	}

	s.db = NewInMemoryTxRunner()
	s.publisher = NewInMemoryEventPublisher()

	s.stripe = NewFakeProvider(types.ProviderStripe)
	s.paddle = NewFakeProvider(types.ProviderPaddle)
	s.registry = provider.NewRegistry()
	s.registry.RegisterCatalog(s.stripe)
	s.registry.RegisterRuntime(s.stripe)
	s.registry.RegisterCatalog(s.paddle)
	s.registry.RegisterRuntime(s.paddle)
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the recording transaction runner
func (s *BaseServiceTestSuite) GetDB() *InMemoryTxRunner {
	return s.db
}

// GetPublisher returns the recording event publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryEventPublisher {
	return s.publisher
}

// GetRegistry returns the registry holding the fake providers
func (s *BaseServiceTestSuite) GetRegistry() *provider.Registry {
	return s.registry
}

// GetStripe returns the fake stripe provider
func (s *BaseServiceTestSuite) GetStripe() *FakeProvider {
	return s.stripe
}

// GetPaddle returns the fake paddle provider
func (s *BaseServiceTestSuite) GetPaddle() *FakeProvider {
	return s.paddle
}

// GetNow returns the reference time taken at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
