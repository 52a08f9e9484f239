package api

import (
	"github.com/gin-gonic/gin"

	"github.com/billingbridge/billingbridge/internal/api/cron"
	v1 "github.com/billingbridge/billingbridge/internal/api/v1"
	"github.com/billingbridge/billingbridge/internal/rest/middleware"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Webhook      *v1.WebhookHandler
	Catalog      *v1.CatalogHandler
	Subscription *v1.SubscriptionHandler
	Sync         *cron.SyncHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Webhook routes
	router.POST("/webhooks/:provider", handlers.Webhook.Receive)

	// Catalog routes
	products := router.Group("/products")
	{
		products.POST("", handlers.Catalog.CreateProduct)
		products.GET("", handlers.Catalog.ListProducts)
		products.GET("/:id", handlers.Catalog.GetProduct)
		products.PUT("/:id", handlers.Catalog.UpdateProduct)
		products.DELETE("/:id", handlers.Catalog.DeleteProduct)
	}

	prices := router.Group("/prices")
	{
		prices.POST("", handlers.Catalog.CreatePrice)
		prices.PUT("/:id", handlers.Catalog.UpdatePrice)
		prices.DELETE("/:id", handlers.Catalog.DeletePrice)
	}

	router.GET("/plans", handlers.Catalog.ListPlans)
	router.POST("/discounts", handlers.Catalog.CreateDiscount)

	// Subscription routes
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("", handlers.Subscription.ListByUser)
		subscriptions.GET("/:id", handlers.Subscription.Get)
		subscriptions.POST("/:id/cancel", handlers.Subscription.Cancel)
		subscriptions.POST("/:id/resume", handlers.Subscription.Resume)
		subscriptions.POST("/:id/change-plan", handlers.Subscription.ChangePlan)
		subscriptions.POST("/:id/seats", handlers.Subscription.SyncSeats)
	}

	router.POST("/checkout", handlers.Subscription.CreateCheckout)

	// Cron routes, invoked by the external scheduler
	cronGroup := router.Group("/cron")
	{
		cronGroup.POST("/catalog-sync", handlers.Sync.CatalogSync)
		cronGroup.POST("/outbox", handlers.Sync.ProcessOutbox)
		cronGroup.POST("/subscriptions/sweep", handlers.Sync.SweepSubscriptions)
	}
}
