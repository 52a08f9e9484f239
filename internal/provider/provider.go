package provider

import (
	"context"

	"github.com/billingbridge/billingbridge/internal/domain/discount"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Capabilities describes per-provider feature variance
type Capabilities struct {
	// PriceLevelTrials is true when the provider accepts trial configuration
	// on the price object itself (Paddle does, Stripe does not)
	PriceLevelTrials bool
}

// CatalogProvider is the push/pull surface for catalog objects at one
// billing platform.
type CatalogProvider interface {
	Name() types.ProviderType
	Capabilities() Capabilities

	CreateProduct(ctx context.Context, p *product.Product) (providerID string, err error)
	UpdateProduct(ctx context.Context, p *product.Product, providerID string) error
	DeleteProduct(ctx context.Context, providerID string) error

	CreatePrice(ctx context.Context, pr *price.Price, productProviderID string) (providerID string, err error)
	// UpdatePrice must only forward metadata and the active flag; amount,
	// currency and interval never reach the provider's update call.
	UpdatePrice(ctx context.Context, pr *price.Price, providerID string) error
	DeletePrice(ctx context.Context, providerID string) error

	CreateDiscount(ctx context.Context, d *discount.Discount) (providerID string, err error)

	// ListCatalog returns one page of the remote catalog; callers follow
	// NextCursor to exhaustion.
	ListCatalog(ctx context.Context, cursor string) (*types.CatalogPage, error)
}

// RuntimeProvider is the subscription/webhook surface of one billing platform
type RuntimeProvider interface {
	Name() types.ProviderType

	// VerifyWebhook validates the signature and extracts the normalized
	// envelope. Pure: no side effects.
	VerifyWebhook(payload []byte, signature string) (*types.NormalizedEvent, error)

	GetSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error)
	CancelSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error)
	ResumeSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error)
	UpdateSubscriptionPrice(ctx context.Context, providerID, priceProviderID string) (*types.SubscriptionState, error)
	UpdateSubscriptionQuantity(ctx context.Context, providerID string, quantity int) (*types.SubscriptionState, error)

	GetCustomer(ctx context.Context, providerCustomerID string) (*types.ProviderCustomer, error)

	CreateCheckout(ctx context.Context, req *types.CheckoutRequest) (*types.CheckoutSession, error)
}

// Registry holds the configured providers, constructed once at startup.
// Provider selection is explicit dependency injection, not global state.
type Registry struct {
	catalog map[types.ProviderType]CatalogProvider
	runtime map[types.ProviderType]RuntimeProvider
}

func NewRegistry() *Registry {
	return &Registry{
		catalog: make(map[types.ProviderType]CatalogProvider),
		runtime: make(map[types.ProviderType]RuntimeProvider),
	}
}

func (r *Registry) RegisterCatalog(p CatalogProvider) {
	r.catalog[p.Name()] = p
}

func (r *Registry) RegisterRuntime(p RuntimeProvider) {
	r.runtime[p.Name()] = p
}

func (r *Registry) Catalog(name types.ProviderType) (CatalogProvider, error) {
	p, ok := r.catalog[name]
	if !ok {
		return nil, ierr.NewError("catalog provider not configured").
			WithHintf("Billing provider %q is not configured", name).
			Mark(ierr.ErrMissingConfiguration)
	}
	return p, nil
}

func (r *Registry) Runtime(name types.ProviderType) (RuntimeProvider, error) {
	p, ok := r.runtime[name]
	if !ok {
		return nil, ierr.NewError("runtime provider not configured").
			WithHintf("Billing provider %q is not configured", name).
			Mark(ierr.ErrMissingConfiguration)
	}
	return p, nil
}

// CatalogProviders returns all configured catalog providers
func (r *Registry) CatalogProviders() []CatalogProvider {
	out := make([]CatalogProvider, 0, len(r.catalog))
	for _, p := range r.catalog {
		out = append(out, p)
	}
	return out
}
