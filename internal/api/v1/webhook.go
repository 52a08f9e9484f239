package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/service"
	"github.com/billingbridge/billingbridge/internal/types"
)

// WebhookHandler terminates provider webhook deliveries. Signature
// verification needs the raw request body, so no binding happens here.
type WebhookHandler struct {
	webhookService service.WebhookService
	logger         *logger.Logger
}

func NewWebhookHandler(webhookService service.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// @Summary Receive a provider webhook
// @Description Verifies, stores and processes one webhook delivery
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Billing provider" Enums(stripe, paddle)
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errors.ErrorResponse
// @Router /webhooks/{provider} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	provider := types.ProviderType(c.Param("provider"))
	if !provider.Validate() {
		c.Error(ierr.NewError("unknown provider").
			WithHintf("Provider %q is not supported", provider).
			Mark(ierr.ErrValidation))
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read webhook body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader(signatureHeader(provider))

	if err := h.webhookService.Ingest(c.Request.Context(), provider, payload, signature); err != nil {
		// Validation failures must 4xx so the provider surfaces the
		// misconfiguration instead of retrying forever.
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func signatureHeader(provider types.ProviderType) string {
	switch provider {
	case types.ProviderStripe:
		return "Stripe-Signature"
	case types.ProviderPaddle:
		return "Paddle-Signature"
	}
	return ""
}
