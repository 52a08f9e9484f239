package discount

import (
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Discount is a local coupon definition pushed to a provider; the provider's
// id for it is stored back on creation.
type Discount struct {
	// ID is the unique identifier for the discount
	ID string `db:"id" json:"id"`

	// LookupKey is the stable business identifier (the coupon code)
	LookupKey string `db:"lookup_key" json:"lookup_key"`

	// Provider is the billing platform the discount was pushed to
	Provider types.ProviderType `db:"provider" json:"provider"`

	// ProviderID is the provider's discount id, set after the push
	ProviderID string `db:"provider_id" json:"provider_id"`

	// PercentOff is the percentage discount; zero when AmountOff is used
	PercentOff int `db:"percent_off" json:"percent_off"`

	// AmountOff is a fixed discount in minor currency units
	AmountOff int64 `db:"amount_off" json:"amount_off"`

	// Currency qualifies AmountOff
	Currency string `db:"currency" json:"currency"`

	types.BaseModel
}

func (d *Discount) Validate() error {
	if d.LookupKey == "" {
		return ierr.NewError("lookup_key is required").
			WithHint("Discount code cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if d.PercentOff == 0 && d.AmountOff == 0 {
		return ierr.NewError("discount has no effect").
			WithHint("Either percent_off or amount_off must be set").
			Mark(ierr.ErrValidation)
	}
	if d.PercentOff != 0 && d.AmountOff != 0 {
		return ierr.NewError("conflicting discount rules").
			WithHint("Set percent_off or amount_off, not both").
			Mark(ierr.ErrValidation)
	}
	if d.PercentOff < 0 || d.PercentOff > 100 {
		return ierr.NewError("percent_off out of range").
			WithHint("Percentage discounts must be between 1 and 100").
			Mark(ierr.ErrValidation)
	}
	if d.AmountOff != 0 && d.Currency == "" {
		return ierr.NewError("currency is required for amount discounts").
			WithHint("Fixed-amount discounts need a currency").
			Mark(ierr.ErrValidation)
	}
	return nil
}
