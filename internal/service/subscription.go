package service

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/subscription"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// SubscriptionService drives the subscription lifecycle. Every state change
// round-trips through the provider first; local state is only written after
// the provider confirmed.
type SubscriptionService interface {
	Get(ctx context.Context, id string) (*subscription.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error)

	Cancel(ctx context.Context, id string) (*subscription.Subscription, error)
	Resume(ctx context.Context, id string) (*subscription.Subscription, error)
	ChangePlan(ctx context.Context, id string, priceLookupKey string) (*subscription.Subscription, error)
	SyncSeats(ctx context.Context, id string, quantity int) (*subscription.Subscription, error)

	// SyncFromProvider pulls the authoritative state for one provider
	// subscription and upserts the local record.
	SyncFromProvider(ctx context.Context, provider types.ProviderType, providerSubID string, hints ResolveHints) (*subscription.Subscription, error)

	// SweepEnded transitions canceled subscriptions whose grace period elapsed
	SweepEnded(ctx context.Context) (int, error)

	CreateCheckout(ctx context.Context, provider types.ProviderType, userID, priceLookupKey string, quantity int, successURL, cancelURL string) (*types.CheckoutSession, error)
}

type subscriptionService struct {
	ServiceParams
	resolver *Resolver
}

func NewSubscriptionService(params ServiceParams, resolver *Resolver) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		resolver:      resolver,
	}
}

func (s *subscriptionService) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.SubscriptionRepo.Get(ctx, id)
}

func (s *subscriptionService) ListByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	return s.SubscriptionRepo.ListByUserID(ctx, userID)
}

// Cancel schedules cancellation at period end. The subscription stays
// entitled until the provider-confirmed end date passes.
func (s *subscriptionService) Cancel(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus == types.SubscriptionStatusEnded {
		return nil, ierr.NewError("subscription already ended").
			WithHint("An ended subscription cannot be canceled").
			Mark(ierr.ErrInvalidOperation)
	}

	runtime, err := s.Registry.Runtime(sub.Provider)
	if err != nil {
		return nil, err
	}

	state, err := runtime.CancelSubscription(ctx, sub.ProviderID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Provider refused the cancellation").
			Mark(ierr.ErrProviderActionFailed)
	}

	now := time.Now().UTC()
	sub.Apply(state)
	if sub.CanceledAt == nil {
		sub.CanceledAt = &now
	}
	if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.publish(ctx, types.EventSubscriptionCanceled, sub)
	return sub, nil
}

// Resume clears a pending cancellation before the grace period elapses
func (s *subscriptionService) Resume(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus != types.SubscriptionStatusCanceled {
		return nil, ierr.NewError("subscription is not canceled").
			WithHint("Only a canceled subscription can be resumed").
			Mark(ierr.ErrInvalidOperation)
	}

	runtime, err := s.Registry.Runtime(sub.Provider)
	if err != nil {
		return nil, err
	}

	state, err := runtime.ResumeSubscription(ctx, sub.ProviderID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Provider refused the resume").
			Mark(ierr.ErrProviderActionFailed)
	}

	sub.Apply(state)
	sub.CanceledAt = nil
	sub.EndsAt = nil
	if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.publish(ctx, types.EventSubscriptionResumed, sub)
	return sub, nil
}

// ChangePlan swaps the subscription onto another price. The local plan key
// changes only after the provider confirmed the swap.
func (s *subscriptionService) ChangePlan(ctx context.Context, id string, priceLookupKey string) (*subscription.Subscription, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus == types.SubscriptionStatusEnded {
		return nil, ierr.NewError("subscription already ended").
			WithHint("An ended subscription cannot change plans").
			Mark(ierr.ErrInvalidOperation)
	}

	priceProviderID, err := s.providerPriceID(ctx, sub.Provider, priceLookupKey)
	if err != nil {
		return nil, err
	}

	runtime, err := s.Registry.Runtime(sub.Provider)
	if err != nil {
		return nil, err
	}

	state, err := runtime.UpdateSubscriptionPrice(ctx, sub.ProviderID, priceProviderID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Provider refused the plan change").
			Mark(ierr.ErrProviderActionFailed)
	}

	planKey, err := s.resolver.ResolvePlanKey(ctx, sub.Provider, state.PriceProviderID)
	if err != nil {
		return nil, err
	}

	sub.Apply(state)
	sub.PlanKey = planKey
	if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.publish(ctx, types.EventSubscriptionUpdated, sub)
	return sub, nil
}

// SyncSeats pushes the seat count of a seat-based plan to the provider
func (s *subscriptionService) SyncSeats(ctx context.Context, id string, quantity int) (*subscription.Subscription, error) {
	if quantity < 1 {
		return nil, ierr.NewError("quantity must be positive").
			WithHint("Seat count must be at least 1").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prod, err := s.ProductRepo.GetByLookupKey(ctx, sub.PlanKey)
	if err != nil {
		return nil, err
	}
	if !prod.SeatBased {
		return nil, ierr.NewError("plan is not seat based").
			WithHintf("Plan %s does not bill per seat", sub.PlanKey).
			Mark(ierr.ErrInvalidOperation)
	}

	runtime, err := s.Registry.Runtime(sub.Provider)
	if err != nil {
		return nil, err
	}

	state, err := runtime.UpdateSubscriptionQuantity(ctx, sub.ProviderID, quantity)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to sync seat count to provider").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"quantity":        quantity,
			}).
			Mark(ierr.ErrSeatSyncFailed)
	}

	sub.Apply(state)
	if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.publish(ctx, types.EventSubscriptionUpdated, sub)
	return sub, nil
}

func (s *subscriptionService) SyncFromProvider(ctx context.Context, provider types.ProviderType, providerSubID string, hints ResolveHints) (*subscription.Subscription, error) {
	runtime, err := s.Registry.Runtime(provider)
	if err != nil {
		return nil, err
	}

	state, err := runtime.GetSubscription(ctx, providerSubID)
	if err != nil {
		return nil, err
	}

	existing, err := s.SubscriptionRepo.GetByProviderID(ctx, provider, providerSubID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	if existing != nil && err == nil {
		prev := existing.SubscriptionStatus
		if !existing.Apply(state) {
			// Ended subscriptions never regress on stale events
			return existing, nil
		}
		if err := s.SubscriptionRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.publish(ctx, eventForTransition(prev, existing.SubscriptionStatus), existing)
		return existing, nil
	}

	return s.createFromState(ctx, provider, state, hints)
}

// createFromState materializes a local subscription from a provider snapshot
// the first time we hear about it.
func (s *subscriptionService) createFromState(ctx context.Context, provider types.ProviderType, state *types.SubscriptionState, hints ResolveHints) (*subscription.Subscription, error) {
	merged := types.Metadata(state.Metadata).Merge(hints.Metadata)
	if hints.CustomerProviderID == "" {
		hints.CustomerProviderID = merged.Get("customer_id")
	}
	hints.Metadata = merged
	hints.SubscriptionProviderID = state.ProviderID

	userID, err := s.resolver.ResolveUserID(ctx, provider, hints)
	if err != nil {
		return nil, err
	}

	planKey := merged.Get("plan_key")
	if planKey == "" && state.PriceProviderID != "" {
		planKey, err = s.resolver.ResolvePlanKey(ctx, provider, state.PriceProviderID)
		if err != nil {
			return nil, err
		}
	}
	if planKey == "" {
		return nil, ierr.NewError("could not determine plan").
			WithHintf("Subscription %s carries no resolvable plan", state.ProviderID).
			Mark(ierr.ErrUnknownPlan)
	}

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:             userID,
		Provider:           provider,
		ProviderID:         state.ProviderID,
		PlanKey:            planKey,
		SubscriptionStatus: state.Status,
		Quantity:           1,
		TrialEndsAt:        state.TrialEndsAt,
		RenewsAt:           state.RenewsAt,
		EndsAt:             state.EndsAt,
		CanceledAt:         state.CanceledAt,
		Metadata:           merged,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if state.Quantity > 0 {
		sub.Quantity = state.Quantity
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.SubscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.publish(ctx, types.EventSubscriptionCreated, sub)
	return sub, nil
}

// SweepEnded walks canceled subscriptions whose end date passed and finalizes
// them. Runs from the cron surface.
func (s *subscriptionService) SweepEnded(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	expired, err := s.SubscriptionRepo.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	ended := 0
	for _, sub := range expired {
		if !sub.End(now) {
			continue
		}
		if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
			s.Logger.Errorw("failed to finalize ended subscription",
				"error", err,
				"subscription_id", sub.ID,
			)
			continue
		}
		s.publish(ctx, types.EventSubscriptionEnded, sub)
		ended++
	}
	return ended, nil
}

func (s *subscriptionService) CreateCheckout(ctx context.Context, provider types.ProviderType, userID, priceLookupKey string, quantity int, successURL, cancelURL string) (*types.CheckoutSession, error) {
	pr, err := s.PriceRepo.GetByLookupKey(ctx, priceLookupKey)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("unknown price").
				WithHintf("No price with lookup key %s", priceLookupKey).
				Mark(ierr.ErrUnknownPrice)
		}
		return nil, err
	}

	prod, err := s.ProductRepo.Get(ctx, pr.ProductID)
	if err != nil {
		return nil, err
	}

	priceProviderID, err := s.providerPriceID(ctx, provider, priceLookupKey)
	if err != nil {
		return nil, err
	}

	runtime, err := s.Registry.Runtime(provider)
	if err != nil {
		return nil, err
	}

	return runtime.CreateCheckout(ctx, &types.CheckoutRequest{
		UserID:          userID,
		PlanKey:         prod.LookupKey,
		PriceProviderID: priceProviderID,
		Quantity:        quantity,
		SuccessURL:      successURL,
		CancelURL:       cancelURL,
	})
}

// providerPriceID resolves a local price lookup key to its provider-side id
func (s *subscriptionService) providerPriceID(ctx context.Context, provider types.ProviderType, priceLookupKey string) (string, error) {
	pr, err := s.PriceRepo.GetByLookupKey(ctx, priceLookupKey)
	if err != nil {
		if ierr.IsNotFound(err) {
			return "", ierr.NewError("unknown price").
				WithHintf("No price with lookup key %s", priceLookupKey).
				Mark(ierr.ErrUnknownPrice)
		}
		return "", err
	}

	mappings, err := s.MappingRepo.GetByEntity(ctx, types.MappingEntityPrice, pr.ID)
	if err != nil {
		return "", err
	}
	for _, m := range mappings {
		if m.Provider == provider {
			return m.ProviderEntityID, nil
		}
	}
	return "", ierr.NewError("price not pushed to provider").
		WithHintf("Price %s has no mapping at %s", priceLookupKey, provider).
		Mark(ierr.ErrMissingPriceID)
}

func (s *subscriptionService) publish(ctx context.Context, name string, sub *subscription.Subscription) {
	if s.Events == nil {
		return
	}
	ev := types.NewDomainEvent(name, types.GetTenantID(ctx), sub)
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Logger.Errorw("failed to publish domain event",
			"error", err,
			"event_name", name,
			"subscription_id", sub.ID,
		)
	}
}

func eventForTransition(prev, next types.SubscriptionStatus) string {
	if prev == next {
		return types.EventSubscriptionUpdated
	}
	switch next {
	case types.SubscriptionStatusCanceled:
		return types.EventSubscriptionCanceled
	case types.SubscriptionStatusEnded:
		return types.EventSubscriptionEnded
	case types.SubscriptionStatusActive:
		if prev == types.SubscriptionStatusCanceled {
			return types.EventSubscriptionResumed
		}
	}
	return types.EventSubscriptionUpdated
}
