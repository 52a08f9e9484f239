package types

import "time"

// PriceType distinguishes one-off purchases from recurring billing
type PriceType string

const (
	PriceTypeOneTime   PriceType = "one_time"
	PriceTypeRecurring PriceType = "recurring"
)

// BillingPeriod is the unit of a recurring billing interval
type BillingPeriod string

const (
	BillingPeriodDay   BillingPeriod = "day"
	BillingPeriodWeek  BillingPeriod = "week"
	BillingPeriodMonth BillingPeriod = "month"
	BillingPeriodYear  BillingPeriod = "year"
)

// SubscriptionStatus is the lifecycle state of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusEnded    SubscriptionStatus = "ended"
)

// SubscriptionState is the provider-agnostic snapshot of a remote
// subscription, produced by runtime providers and applied to the local model.
type SubscriptionState struct {
	ProviderID      string             `json:"provider_id"`
	Status          SubscriptionStatus `json:"status"`
	PriceProviderID string             `json:"price_provider_id"`
	Quantity        int                `json:"quantity"`
	TrialEndsAt     *time.Time         `json:"trial_ends_at,omitempty"`
	RenewsAt        *time.Time         `json:"renews_at,omitempty"`
	EndsAt          *time.Time         `json:"ends_at,omitempty"`
	CanceledAt      *time.Time         `json:"canceled_at,omitempty"`
	Metadata        map[string]string  `json:"metadata,omitempty"`
}

// ProviderCustomer is the normalized shape of a provider-side customer object,
// used by the webhook resolution fallback.
type ProviderCustomer struct {
	ProviderCustomerID string            `json:"provider_customer_id"`
	Email              string            `json:"email"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// CheckoutRequest describes a hosted checkout session to create at a provider
type CheckoutRequest struct {
	UserID          string            `json:"user_id"`
	PlanKey         string            `json:"plan_key"`
	PriceProviderID string            `json:"price_provider_id"`
	Quantity        int               `json:"quantity"`
	SuccessURL      string            `json:"success_url"`
	CancelURL       string            `json:"cancel_url"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// CheckoutSession is the provider's answer to a checkout request
type CheckoutSession struct {
	ProviderSessionID string `json:"provider_session_id"`
	URL               string `json:"url"`
}
