package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billingbridge/billingbridge/internal/api/dto"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/service"
)

// SubscriptionHandler exposes the subscription lifecycle surface
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	logger              *logger.Logger
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService, logger *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	sub, err := h.subscriptionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) ListByUser(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.Error(ierr.NewError("user_id is required").
			WithHint("Pass user_id as a query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	subs, err := h.subscriptionService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": subs})
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sub, err := h.subscriptionService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Resume(c *gin.Context) {
	sub, err := h.subscriptionService.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	sub, err := h.subscriptionService.ChangePlan(c.Request.Context(), c.Param("id"), req.PriceLookupKey)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) SyncSeats(c *gin.Context) {
	var req dto.SyncSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	sub, err := h.subscriptionService.SyncSeats(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) CreateCheckout(c *gin.Context) {
	var req dto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	session, err := h.subscriptionService.CreateCheckout(
		c.Request.Context(),
		req.Provider,
		req.UserID,
		req.PriceLookupKey,
		req.Quantity,
		req.SuccessURL,
		req.CancelURL,
	)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, session)
}
