package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/billingbridge/billingbridge/internal/api"
	"github.com/billingbridge/billingbridge/internal/api/cron"
	v1 "github.com/billingbridge/billingbridge/internal/api/v1"
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
	"github.com/billingbridge/billingbridge/internal/provider/paddle"
	"github.com/billingbridge/billingbridge/internal/provider/stripe"
	"github.com/billingbridge/billingbridge/internal/publisher"
	"github.com/billingbridge/billingbridge/internal/pubsub/memory"
	"github.com/billingbridge/billingbridge/internal/repository"
	"github.com/billingbridge/billingbridge/internal/service"
	"github.com/billingbridge/billingbridge/internal/types"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Postgres
			postgres.NewDB,

			// PubSub and event publisher
			memory.NewPubSub,
			publisher.NewPublisher,

			// Billing providers
			provideRegistry,

			// Repositories
			repository.NewProductRepository,
			repository.NewPriceRepository,
			repository.NewProviderMappingRepository,
			repository.NewSubscriptionRepository,
			repository.NewWebhookEventRepository,
			repository.NewOutboxRepository,
			repository.NewDiscountRepository,
			repository.NewBillingCustomerRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			provideServiceParams,

			service.NewResolver,
			service.NewSubscriptionService,
			service.NewCatalogSyncService,
			service.NewOutboxService,
			service.NewCatalogService,
			provideDispatcher,
			service.NewWebhookService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

// provideRegistry builds the provider registry from the enabled provider
// list; unknown names are rejected at config validation, not here.
func provideRegistry(cfg *config.Configuration, log *logger.Logger) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	for _, name := range cfg.Billing.EnabledProviders {
		switch name {
		case types.ProviderStripe:
			p, err := stripe.NewProvider(cfg.Billing.Stripe, log)
			if err != nil {
				return nil, err
			}
			registry.RegisterCatalog(p)
			registry.RegisterRuntime(p)
		case types.ProviderPaddle:
			p, err := paddle.NewProvider(cfg.Billing.Paddle, log)
			if err != nil {
				return nil, err
			}
			registry.RegisterCatalog(p)
			registry.RegisterRuntime(p)
		}
	}

	return registry, nil
}

func provideServiceParams(
	log *logger.Logger,
	cfg *config.Configuration,
	registry *provider.Registry,
	events publisher.EventPublisher,
	db *postgres.DB,
	productRepo product.Repository,
	priceRepo price.Repository,
	mappingRepo providermapping.Repository,
	subscriptionRepo subscription.Repository,
	webhookEventRepo webhookevent.Repository,
	outboxRepo outbox.Repository,
	discountRepo discount.Repository,
	billingCustomerRepo billingcustomer.Repository,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:              log,
		Config:              cfg,
		Registry:            registry,
		Events:              events,
		DB:                  db,
		ProductRepo:         productRepo,
		PriceRepo:           priceRepo,
		MappingRepo:         mappingRepo,
		SubscriptionRepo:    subscriptionRepo,
		WebhookEventRepo:    webhookEventRepo,
		OutboxRepo:          outboxRepo,
		DiscountRepo:        discountRepo,
		BillingCustomerRepo: billingCustomerRepo,
	}
}

// provideDispatcher registers every webhook event handler. Registration
// order does not matter; handlers are keyed by event type.
func provideDispatcher(
	params service.ServiceParams,
	subscriptionService service.SubscriptionService,
	log *logger.Logger,
) *service.Dispatcher {
	dispatcher := service.NewDispatcher(log)
	dispatcher.Register(service.NewSubscriptionEventHandler(subscriptionService))
	dispatcher.Register(service.NewCheckoutEventHandler(params, subscriptionService))
	dispatcher.Register(service.NewInvoiceEventHandler(params, subscriptionService))
	return dispatcher
}

func provideHandlers(
	log *logger.Logger,
	webhookService service.WebhookService,
	catalogService service.CatalogService,
	subscriptionService service.SubscriptionService,
	catalogSyncService service.CatalogSyncService,
	outboxService service.OutboxService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(log),
		Webhook:      v1.NewWebhookHandler(webhookService, log),
		Catalog:      v1.NewCatalogHandler(catalogService, log),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, log),
		Sync:         cron.NewSyncHandler(catalogSyncService, outboxService, subscriptionService, log),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	events publisher.EventPublisher,
	log *logger.Logger,
) {
	if cfg.Deployment.Mode == types.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return events.Close()
		},
	})
}
