package dto

import "github.com/billingbridge/billingbridge/internal/types"

type ChangePlanRequest struct {
	PriceLookupKey string `json:"price_lookup_key" binding:"required"`
}

type SyncSeatsRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CreateCheckoutRequest struct {
	Provider       types.ProviderType `json:"provider" binding:"required"`
	UserID         string             `json:"user_id" binding:"required"`
	PriceLookupKey string             `json:"price_lookup_key" binding:"required"`
	Quantity       int                `json:"quantity"`
	SuccessURL     string             `json:"success_url" binding:"required,url"`
	CancelURL      string             `json:"cancel_url"`
}
