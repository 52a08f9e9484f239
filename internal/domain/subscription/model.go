package subscription

import (
	"time"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Subscription is the authoritative lifecycle model for a user's plan.
// Status transitions are driven only by normalized webhook events or explicit
// provider sync pulls, never set ad hoc.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// UserID is the owning user
	UserID string `db:"user_id" json:"user_id"`

	// Provider is the billing platform the subscription lives at
	Provider types.ProviderType `db:"provider" json:"provider"`

	// ProviderID is the provider's subscription id, the primary lookup
	// surface for inbound webhook events
	ProviderID string `db:"provider_id" json:"provider_id"`

	// PlanKey is the local business identifier of the subscribed plan
	PlanKey string `db:"plan_key" json:"plan_key"`

	// SubscriptionStatus is the lifecycle state
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// Quantity is the seat count
	Quantity int `db:"quantity" json:"quantity"`

	TrialEndsAt *time.Time `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	RenewsAt    *time.Time `db:"renews_at" json:"renews_at,omitempty"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CanceledAt  *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`

	// Metadata contains provider correlation hints (team_id etc.)
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// IsEntitled reports whether the subscription currently grants access.
// A canceled subscription keeps its entitlement until ends_at passes.
func (s *Subscription) IsEntitled(now time.Time) bool {
	switch s.SubscriptionStatus {
	case types.SubscriptionStatusTrialing, types.SubscriptionStatusActive, types.SubscriptionStatusPastDue:
		return true
	case types.SubscriptionStatusCanceled:
		return s.EndsAt != nil && now.Before(*s.EndsAt)
	}
	return false
}

// Apply overwrites the local lifecycle fields from a provider state snapshot.
// An ended subscription never regresses: stale events arriving after the end
// are ignored.
func (s *Subscription) Apply(state *types.SubscriptionState) bool {
	if s.SubscriptionStatus == types.SubscriptionStatusEnded {
		return false
	}

	s.SubscriptionStatus = state.Status
	if state.Quantity > 0 {
		s.Quantity = state.Quantity
	}
	s.TrialEndsAt = state.TrialEndsAt
	s.RenewsAt = state.RenewsAt
	s.EndsAt = state.EndsAt
	s.CanceledAt = state.CanceledAt
	s.UpdatedAt = time.Now().UTC()
	return true
}

// Cancel marks the subscription canceled at the end of the current billing
// period. The subscription stays entitled until periodEnd.
func (s *Subscription) Cancel(now, periodEnd time.Time) error {
	if s.SubscriptionStatus == types.SubscriptionStatusEnded {
		return ierr.NewError("subscription already ended").
			WithHint("An ended subscription cannot be canceled").
			Mark(ierr.ErrInvalidOperation)
	}
	s.SubscriptionStatus = types.SubscriptionStatusCanceled
	s.CanceledAt = &now
	s.EndsAt = &periodEnd
	s.UpdatedAt = now
	return nil
}

// Resume clears a pending cancellation. Only valid before ends_at passes.
func (s *Subscription) Resume(now time.Time) error {
	if s.SubscriptionStatus == types.SubscriptionStatusEnded {
		return ierr.NewError("subscription already ended").
			WithHint("An ended subscription cannot be resumed").
			Mark(ierr.ErrInvalidOperation)
	}
	if s.CanceledAt == nil {
		return ierr.NewError("subscription is not canceled").
			WithHint("Only a canceled subscription can be resumed").
			Mark(ierr.ErrInvalidOperation)
	}
	s.SubscriptionStatus = types.SubscriptionStatusActive
	s.CanceledAt = nil
	s.EndsAt = nil
	s.UpdatedAt = now
	return nil
}

// End transitions a canceled subscription whose grace period elapsed
func (s *Subscription) End(now time.Time) bool {
	if s.SubscriptionStatus != types.SubscriptionStatusCanceled {
		return false
	}
	if s.EndsAt == nil || now.Before(*s.EndsAt) {
		return false
	}
	s.SubscriptionStatus = types.SubscriptionStatusEnded
	s.UpdatedAt = now
	return true
}

func (s *Subscription) Validate() error {
	if s.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("Subscription must belong to a user").
			Mark(ierr.ErrValidation)
	}
	if !s.Provider.Validate() {
		return ierr.NewError("invalid provider").
			WithHintf("Provider %q is not supported", s.Provider).
			Mark(ierr.ErrValidation)
	}
	if s.ProviderID == "" {
		return ierr.NewError("provider_id is required").
			WithHint("Subscription must carry the provider subscription id").
			Mark(ierr.ErrValidation)
	}
	return nil
}
