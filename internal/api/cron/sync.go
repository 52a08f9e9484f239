package cron

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/service"
)

// SyncHandler exposes the scheduled maintenance jobs as HTTP endpoints,
// triggered by an external scheduler.
type SyncHandler struct {
	catalogSync         service.CatalogSyncService
	outboxService       service.OutboxService
	subscriptionService service.SubscriptionService
	logger              *logger.Logger
}

func NewSyncHandler(
	catalogSync service.CatalogSyncService,
	outboxService service.OutboxService,
	subscriptionService service.SubscriptionService,
	logger *logger.Logger,
) *SyncHandler {
	return &SyncHandler{
		catalogSync:         catalogSync,
		outboxService:       outboxService,
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// CatalogSync pushes the local catalog out and pulls every provider back
func (h *SyncHandler) CatalogSync(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.catalogSync.PushAll(ctx); err != nil {
		// Push failures are repairable by the pull below; log and continue
		h.logger.Errorw("catalog push finished with errors", "error", err)
	}

	reports, err := h.catalogSync.PullAll(ctx)
	if err != nil {
		h.logger.Errorw("catalog pull failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed", "reports": reports})
}

// ProcessOutbox drains due deletion outbox entries
func (h *SyncHandler) ProcessOutbox(c *gin.Context) {
	processed, failed, err := h.outboxService.ProcessDue(c.Request.Context(), 100)
	if err != nil {
		h.logger.Errorw("outbox processing failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "completed",
		"processed": processed,
		"failed":    failed,
	})
}

// SweepSubscriptions finalizes canceled subscriptions whose grace period passed
func (h *SyncHandler) SweepSubscriptions(c *gin.Context) {
	ended, err := h.subscriptionService.SweepEnded(c.Request.Context())
	if err != nil {
		h.logger.Errorw("subscription sweep failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed", "ended": ended})
}
