package price

import (
	"github.com/shopspring/decimal"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Price is a purchasable variant of a product. Amount, currency and interval
// are immutable once the price has been pushed to a provider; only metadata
// and the active flag may change afterwards.
type Price struct {
	// ID is the unique identifier for the price
	ID string `db:"id" json:"id"`

	// LookupKey is the stable business identifier of the price
	LookupKey string `db:"lookup_key" json:"lookup_key"`

	// ProductID is the owning product
	ProductID string `db:"product_id" json:"product_id"`

	// Amount in integer minor currency units (cents)
	Amount int64 `db:"amount" json:"amount"`

	// DisplayAmount is the formatted major-unit amount, derived from Amount
	DisplayAmount string `db:"display_amount" json:"display_amount"`

	// Currency is the lowercase ISO 4217 code as stored locally
	Currency string `db:"currency" json:"currency"`

	// Type is one_time or recurring
	Type types.PriceType `db:"type" json:"type"`

	// BillingPeriod and BillingPeriodCount define the recurring interval
	BillingPeriod      types.BillingPeriod `db:"billing_period" json:"billing_period"`
	BillingPeriodCount int                 `db:"billing_period_count" json:"billing_period_count"`

	// TrialPeriodDays is the trial length; zero means no trial. Whether the
	// trial reaches the provider depends on the provider's capabilities.
	TrialPeriodDays int `db:"trial_period_days" json:"trial_period_days"`

	// Metadata contains additional custom fields
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// Active reports whether the price can be used for new purchases
func (p *Price) Active() bool {
	return p.Status == types.StatusPublished
}

// HasTrial reports whether a trial period applies
func (p *Price) HasTrial() bool {
	return p.TrialPeriodDays > 0
}

// GetDisplayAmount renders the minor-unit amount as a major-unit decimal
func (p *Price) GetDisplayAmount() string {
	return decimal.NewFromInt(p.Amount).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// ImmutableEquals reports whether the provider-immutable fields of two prices
// match. Used by the push layer to reject mutations of pushed prices.
func (p *Price) ImmutableEquals(other *Price) bool {
	return p.Amount == other.Amount &&
		p.Currency == other.Currency &&
		p.Type == other.Type &&
		p.BillingPeriod == other.BillingPeriod &&
		p.BillingPeriodCount == other.BillingPeriodCount
}

func (p *Price) Validate() error {
	if p.ProductID == "" {
		return ierr.NewError("product_id is required").
			WithHint("Price must belong to a product").
			Mark(ierr.ErrValidation)
	}
	if p.Amount < 0 {
		return ierr.NewError("amount must not be negative").
			WithHint("Price amount must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("currency is required").
			WithHint("Price currency cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if p.Type == types.PriceTypeRecurring && p.BillingPeriod == "" {
		return ierr.NewError("billing_period is required for recurring prices").
			WithHint("Recurring prices need a billing period").
			Mark(ierr.ErrValidation)
	}
	return nil
}
