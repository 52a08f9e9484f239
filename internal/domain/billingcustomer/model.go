package billingcustomer

import (
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// BillingCustomer links a provider-side customer object to a local user.
// Rows are usually written by checkout handlers; the Stripe self-heal path
// writes them when an invoice event arrives before the checkout event did.
type BillingCustomer struct {
	// ID is the unique identifier for the record
	ID string `db:"id" json:"id"`

	// Provider is the billing platform
	Provider types.ProviderType `db:"provider" json:"provider"`

	// ProviderCustomerID is the provider's customer id
	ProviderCustomerID string `db:"provider_customer_id" json:"provider_customer_id"`

	// UserID is the local user
	UserID string `db:"user_id" json:"user_id"`

	// Email as known by the provider, for operator triage
	Email string `db:"email" json:"email"`

	// Metadata contains provider-specific data
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

func (c *BillingCustomer) Validate() error {
	if !c.Provider.Validate() {
		return ierr.NewError("invalid provider").
			WithHintf("Provider %q is not supported", c.Provider).
			Mark(ierr.ErrValidation)
	}
	if c.ProviderCustomerID == "" {
		return ierr.NewError("provider_customer_id is required").
			WithHint("Billing customer must carry the provider customer id").
			Mark(ierr.ErrValidation)
	}
	if c.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("Billing customer must belong to a user").
			Mark(ierr.ErrValidation)
	}
	return nil
}
