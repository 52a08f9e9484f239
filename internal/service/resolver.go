package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/billingbridge/billingbridge/internal/domain/billingcustomer"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// ResolveHints carries the correlation material extracted from a webhook
// payload. Not every event carries every hint.
type ResolveHints struct {
	// Metadata is the provider-side custom data on the event object
	Metadata map[string]string
	// SubscriptionProviderID is the provider's subscription id, when present
	SubscriptionProviderID string
	// CustomerProviderID is the provider's customer id, when present
	CustomerProviderID string
}

// Resolver maps webhook payloads back to local users and plans. The lookup
// chain degrades gracefully: embedded metadata first, then local records,
// then a provider fetch as a last resort.
type Resolver struct {
	ServiceParams
	customers *cache.Cache
}

func NewResolver(params ServiceParams) *Resolver {
	return &Resolver{
		ServiceParams: params,
		customers:     cache.New(10*time.Minute, 30*time.Minute),
	}
}

// ResolveUserID finds the local user a webhook event belongs to.
//
// Chain: event metadata, then the locally stored subscription, then the
// billing customer link, then (Stripe only) a blocking customer fetch whose
// metadata usually carries the user id set at checkout. A successful fetch
// writes the link back so the next event short-circuits.
func (r *Resolver) ResolveUserID(ctx context.Context, provider types.ProviderType, hints ResolveHints) (string, error) {
	if uid := hints.Metadata["user_id"]; uid != "" {
		return uid, nil
	}

	if hints.SubscriptionProviderID != "" {
		sub, err := r.SubscriptionRepo.GetByProviderID(ctx, provider, hints.SubscriptionProviderID)
		if err == nil {
			return sub.UserID, nil
		}
		if !ierr.IsNotFound(err) {
			return "", err
		}
	}

	if hints.CustomerProviderID != "" {
		bc, err := r.BillingCustomerRepo.GetByProviderCustomerID(ctx, provider, hints.CustomerProviderID)
		if err == nil {
			return bc.UserID, nil
		}
		if !ierr.IsNotFound(err) {
			return "", err
		}

		if provider == types.ProviderStripe {
			return r.selfHeal(ctx, provider, hints.CustomerProviderID)
		}
	}

	return "", ierr.NewError("could not resolve user").
		WithHint("No correlation hint matched a local user").
		WithReportableDetails(map[string]any{
			"provider":        provider,
			"subscription_id": hints.SubscriptionProviderID,
			"customer_id":     hints.CustomerProviderID,
		}).
		Mark(ierr.ErrNotFound)
}

// selfHeal fetches the Stripe customer whose metadata carries the user id set
// during checkout, then persists the link. Stripe invoice events reference
// only the customer, so an invoice arriving before the checkout event is
// otherwise unresolvable.
func (r *Resolver) selfHeal(ctx context.Context, provider types.ProviderType, customerProviderID string) (string, error) {
	cacheKey := string(provider) + ":" + customerProviderID

	var customer *types.ProviderCustomer
	if cached, found := r.customers.Get(cacheKey); found {
		customer = cached.(*types.ProviderCustomer)
	} else {
		runtime, err := r.Registry.Runtime(provider)
		if err != nil {
			return "", err
		}

		fetchCtx, cancel := context.WithTimeout(ctx, r.Config.Billing.SelfHealTimeout)
		defer cancel()

		customer, err = runtime.GetCustomer(fetchCtx, customerProviderID)
		if err != nil {
			return "", err
		}
		r.customers.Set(cacheKey, customer, cache.DefaultExpiration)
	}

	uid := customer.Metadata["user_id"]
	if uid == "" {
		return "", ierr.NewError("customer carries no user id").
			WithHintf("Customer %s has no user_id metadata", customerProviderID).
			Mark(ierr.ErrNotFound)
	}

	link := &billingcustomer.BillingCustomer{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CUSTOMER),
		Provider:           provider,
		ProviderCustomerID: customerProviderID,
		UserID:             uid,
		Email:              customer.Email,
		Metadata:           customer.Metadata,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if _, _, err := r.BillingCustomerRepo.CreateOrGet(ctx, link); err != nil {
		// The resolution itself succeeded; losing the write-back only costs
		// another fetch on the next event.
		r.Logger.Errorw("failed to persist billing customer link",
			"error", err,
			"provider", provider,
			"provider_customer_id", customerProviderID,
		)
	}

	return uid, nil
}

// ResolvePlanKey maps a provider price id to the local plan's lookup key via
// the mapping table. Tombstone mappings have no local entity yet and resolve
// to an error.
func (r *Resolver) ResolvePlanKey(ctx context.Context, provider types.ProviderType, priceProviderID string) (string, error) {
	mapping, err := r.MappingRepo.GetByProviderEntityID(ctx, provider, types.MappingEntityPrice, priceProviderID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return "", ierr.NewError("price not mapped").
				WithHintf("Provider price %s has no local mapping", priceProviderID).
				Mark(ierr.ErrUnknownPrice)
		}
		return "", err
	}
	if mapping.IsTombstone() {
		return "", ierr.NewError("price mapping is a tombstone").
			WithHintf("Provider price %s was discovered remotely but has no local price", priceProviderID).
			Mark(ierr.ErrUnknownPrice)
	}

	pr, err := r.PriceRepo.Get(ctx, mapping.EntityID)
	if err != nil {
		return "", err
	}

	prod, err := r.ProductRepo.Get(ctx, pr.ProductID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return "", ierr.NewError("product missing for price").
				WithHintf("Price %s references product %s which does not exist", pr.ID, pr.ProductID).
				Mark(ierr.ErrUnknownPlan)
		}
		return "", err
	}
	return prod.LookupKey, nil
}
