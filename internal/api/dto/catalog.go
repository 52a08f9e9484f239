package dto

import (
	"github.com/billingbridge/billingbridge/internal/domain/discount"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	"github.com/billingbridge/billingbridge/internal/types"
)

type CreateProductRequest struct {
	LookupKey   string            `json:"lookup_key" binding:"required"`
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	SeatBased   bool              `json:"seat_based"`
	Featured    bool              `json:"featured"`
	Metadata    map[string]string `json:"metadata"`
}

func (r *CreateProductRequest) ToProduct() *product.Product {
	return &product.Product{
		LookupKey:   r.LookupKey,
		Name:        r.Name,
		Description: r.Description,
		SeatBased:   r.SeatBased,
		Featured:    r.Featured,
		Metadata:    r.Metadata,
	}
}

type UpdateProductRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	SeatBased   bool              `json:"seat_based"`
	Featured    bool              `json:"featured"`
	Metadata    map[string]string `json:"metadata"`
}

type CreatePriceRequest struct {
	LookupKey          string              `json:"lookup_key" binding:"required"`
	ProductID          string              `json:"product_id" binding:"required"`
	Amount             int64               `json:"amount"`
	Currency           string              `json:"currency" binding:"required"`
	Type               types.PriceType     `json:"type" binding:"required"`
	BillingPeriod      types.BillingPeriod `json:"billing_period"`
	BillingPeriodCount int                 `json:"billing_period_count"`
	TrialPeriodDays    int                 `json:"trial_period_days"`
	Metadata           map[string]string   `json:"metadata"`
}

func (r *CreatePriceRequest) ToPrice() *price.Price {
	count := r.BillingPeriodCount
	if r.Type == types.PriceTypeRecurring && count < 1 {
		count = 1
	}
	return &price.Price{
		LookupKey:          r.LookupKey,
		ProductID:          r.ProductID,
		Amount:             r.Amount,
		Currency:           r.Currency,
		Type:               r.Type,
		BillingPeriod:      r.BillingPeriod,
		BillingPeriodCount: count,
		TrialPeriodDays:    r.TrialPeriodDays,
		Metadata:           r.Metadata,
	}
}

type UpdatePriceRequest struct {
	Amount             int64               `json:"amount"`
	Currency           string              `json:"currency"`
	Type               types.PriceType     `json:"type"`
	BillingPeriod      types.BillingPeriod `json:"billing_period"`
	BillingPeriodCount int                 `json:"billing_period_count"`
	TrialPeriodDays    int                 `json:"trial_period_days"`
	Metadata           map[string]string   `json:"metadata"`
}

// PlanResponse is a product with its purchasable prices, the shape the
// pricing page renders from.
type PlanResponse struct {
	*product.Product
	Prices []*price.Price `json:"prices"`
}

type CreateDiscountRequest struct {
	LookupKey  string             `json:"lookup_key" binding:"required"`
	Provider   types.ProviderType `json:"provider" binding:"required"`
	PercentOff int                `json:"percent_off"`
	AmountOff  int64              `json:"amount_off"`
	Currency   string             `json:"currency"`
}

func (r *CreateDiscountRequest) ToDiscount() *discount.Discount {
	return &discount.Discount{
		LookupKey:  r.LookupKey,
		Provider:   r.Provider,
		PercentOff: r.PercentOff,
		AmountOff:  r.AmountOff,
		Currency:   r.Currency,
	}
}
