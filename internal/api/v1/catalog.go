package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billingbridge/billingbridge/internal/api/dto"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/service"
)

// CatalogHandler exposes the local catalog CRUD surface
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *logger.Logger
}

func NewCatalogHandler(catalogService service.CatalogService, logger *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	prod, err := h.catalogService.CreateProduct(c.Request.Context(), req.ToProduct())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	prod, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prod)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products})
}

func (h *CatalogHandler) ListPlans(c *gin.Context) {
	plans, err := h.catalogService.ListPlans(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": plans})
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	prod, err := h.catalogService.UpdateProduct(c.Request.Context(), &product.Product{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		SeatBased:   req.SeatBased,
		Featured:    req.Featured,
		Metadata:    req.Metadata,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prod)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalogService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *CatalogHandler) CreatePrice(c *gin.Context) {
	var req dto.CreatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	pr, err := h.catalogService.CreatePrice(c.Request.Context(), req.ToPrice())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, pr)
}

func (h *CatalogHandler) UpdatePrice(c *gin.Context) {
	var req dto.UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	pr, err := h.catalogService.UpdatePrice(c.Request.Context(), &price.Price{
		ID:                 c.Param("id"),
		Amount:             req.Amount,
		Currency:           req.Currency,
		Type:               req.Type,
		BillingPeriod:      req.BillingPeriod,
		BillingPeriodCount: req.BillingPeriodCount,
		TrialPeriodDays:    req.TrialPeriodDays,
		Metadata:           req.Metadata,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pr)
}

func (h *CatalogHandler) DeletePrice(c *gin.Context) {
	if err := h.catalogService.DeletePrice(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *CatalogHandler) CreateDiscount(c *gin.Context) {
	var req dto.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	d, err := h.catalogService.CreateDiscount(c.Request.Context(), req.ToDiscount())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, d)
}
