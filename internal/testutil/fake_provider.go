package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/discount"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/provider"
	"github.com/billingbridge/billingbridge/internal/types"
)

// FakeProvider implements both provider.CatalogProvider and
// provider.RuntimeProvider against in-memory state, with injectable failures.
type FakeProvider struct {
	mu sync.Mutex

	ProviderName types.ProviderType
	Caps         provider.Capabilities

	// catalog state
	Products map[string]*product.Product // providerID -> last pushed product
	Prices   map[string]*price.Price     // providerID -> last pushed price
	Deleted  []string                    // providerIDs of deleted objects
	Pages    []*types.CatalogPage        // served in order via numeric cursors

	// runtime state
	Subscriptions map[string]*types.SubscriptionState
	Customers     map[string]*types.ProviderCustomer
	Events        map[string]*types.NormalizedEvent // signature -> event

	// failure injection
	CatalogErr       error // returned by create/update calls
	DeleteErr        error // returned by delete calls
	NotFoundOnDelete bool  // delete calls report the object already gone
	RuntimeErr       error // returned by subscription calls

	// counters
	GetCustomerCalls int
	DeleteCalls      int

	seq int
}

var (
	_ provider.CatalogProvider = (*FakeProvider)(nil)
	_ provider.RuntimeProvider = (*FakeProvider)(nil)
)

func NewFakeProvider(name types.ProviderType) *FakeProvider {
	return &FakeProvider{
		ProviderName:  name,
		Caps:          provider.Capabilities{PriceLevelTrials: name == types.ProviderPaddle},
		Products:      make(map[string]*product.Product),
		Prices:        make(map[string]*price.Price),
		Subscriptions: make(map[string]*types.SubscriptionState),
		Customers:     make(map[string]*types.ProviderCustomer),
		Events:        make(map[string]*types.NormalizedEvent),
	}
}

func (f *FakeProvider) Name() types.ProviderType {
	return f.ProviderName
}

func (f *FakeProvider) Capabilities() provider.Capabilities {
	return f.Caps
}

func (f *FakeProvider) nextID(kind string) string {
	f.seq++
	return fmt.Sprintf("%s_%s_%d", f.ProviderName, kind, f.seq)
}

func (f *FakeProvider) CreateProduct(ctx context.Context, p *product.Product) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CatalogErr != nil {
		return "", f.CatalogErr
	}
	id := f.nextID("prod")
	f.Products[id] = p
	return id, nil
}

func (f *FakeProvider) UpdateProduct(ctx context.Context, p *product.Product, providerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CatalogErr != nil {
		return f.CatalogErr
	}
	f.Products[providerID] = p
	return nil
}

func (f *FakeProvider) DeleteProduct(ctx context.Context, providerID string) error {
	return f.deleteRemote(providerID)
}

func (f *FakeProvider) CreatePrice(ctx context.Context, pr *price.Price, productProviderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CatalogErr != nil {
		return "", f.CatalogErr
	}
	id := f.nextID("price")
	f.Prices[id] = pr
	return id, nil
}

func (f *FakeProvider) UpdatePrice(ctx context.Context, pr *price.Price, providerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CatalogErr != nil {
		return f.CatalogErr
	}
	f.Prices[providerID] = pr
	return nil
}

func (f *FakeProvider) DeletePrice(ctx context.Context, providerID string) error {
	return f.deleteRemote(providerID)
}

func (f *FakeProvider) deleteRemote(providerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if f.NotFoundOnDelete {
		return ierr.NewError("object not found").
			WithHintf("Object %s was not found", providerID).
			Mark(ierr.ErrNotFound)
	}
	f.Deleted = append(f.Deleted, providerID)
	return nil
}

func (f *FakeProvider) CreateDiscount(ctx context.Context, d *discount.Discount) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CatalogErr != nil {
		return "", f.CatalogErr
	}
	return f.nextID("disc"), nil
}

// ListCatalog serves Pages in order; the cursor is the next page index
func (f *FakeProvider) ListCatalog(ctx context.Context, cursor string) (*types.CatalogPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Pages) == 0 {
		return &types.CatalogPage{}, nil
	}

	idx := 0
	if cursor != "" {
		var err error
		idx, err = strconv.Atoi(cursor)
		if err != nil || idx >= len(f.Pages) {
			return &types.CatalogPage{}, nil
		}
	}

	page := *f.Pages[idx]
	if idx+1 < len(f.Pages) {
		page.NextCursor = strconv.Itoa(idx + 1)
	} else {
		page.NextCursor = ""
	}
	return &page, nil
}

func (f *FakeProvider) VerifyWebhook(payload []byte, signature string) (*types.NormalizedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.Events[signature]; ok {
		return ev, nil
	}
	return nil, ierr.NewError("signature mismatch").
		WithHint("Invalid webhook signature").
		Mark(ierr.ErrWebhookValidationFailed)
}

func (f *FakeProvider) GetSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RuntimeErr != nil {
		return nil, f.RuntimeErr
	}
	state, ok := f.Subscriptions[providerID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s was not found", providerID).
			Mark(ierr.ErrNotFound)
	}
	out := *state
	return &out, nil
}

func (f *FakeProvider) CancelSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RuntimeErr != nil {
		return nil, f.RuntimeErr
	}
	state, ok := f.Subscriptions[providerID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s was not found", providerID).
			Mark(ierr.ErrNotFound)
	}

	now := time.Now().UTC()
	state.Status = types.SubscriptionStatusCanceled
	state.CanceledAt = &now
	if state.RenewsAt != nil {
		state.EndsAt = state.RenewsAt
	} else {
		periodEnd := now.Add(30 * 24 * time.Hour)
		state.EndsAt = &periodEnd
	}
	state.RenewsAt = nil

	out := *state
	return &out, nil
}

func (f *FakeProvider) ResumeSubscription(ctx context.Context, providerID string) (*types.SubscriptionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RuntimeErr != nil {
		return nil, f.RuntimeErr
	}
	state, ok := f.Subscriptions[providerID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s was not found", providerID).
			Mark(ierr.ErrNotFound)
	}

	state.Status = types.SubscriptionStatusActive
	state.RenewsAt = state.EndsAt
	state.EndsAt = nil
	state.CanceledAt = nil

	out := *state
	return &out, nil
}

func (f *FakeProvider) UpdateSubscriptionPrice(ctx context.Context, providerID, priceProviderID string) (*types.SubscriptionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RuntimeErr != nil {
		return nil, f.RuntimeErr
	}
	state, ok := f.Subscriptions[providerID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s was not found", providerID).
			Mark(ierr.ErrNotFound)
	}

	state.PriceProviderID = priceProviderID
	out := *state
	return &out, nil
}

func (f *FakeProvider) UpdateSubscriptionQuantity(ctx context.Context, providerID string, quantity int) (*types.SubscriptionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RuntimeErr != nil {
		return nil, f.RuntimeErr
	}
	state, ok := f.Subscriptions[providerID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s was not found", providerID).
			Mark(ierr.ErrNotFound)
	}

	state.Quantity = quantity
	out := *state
	return &out, nil
}

func (f *FakeProvider) GetCustomer(ctx context.Context, providerCustomerID string) (*types.ProviderCustomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCustomerCalls++
	if f.RuntimeErr != nil {
		return nil, f.RuntimeErr
	}
	c, ok := f.Customers[providerCustomerID]
	if !ok {
		return nil, ierr.NewError("customer not found").
			WithHintf("Customer %s was not found", providerCustomerID).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (f *FakeProvider) CreateCheckout(ctx context.Context, req *types.CheckoutRequest) (*types.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RuntimeErr != nil {
		return nil, f.RuntimeErr
	}
	id := f.nextID("sess")
	return &types.CheckoutSession{
		ProviderSessionID: id,
		URL:               "https://checkout.test/" + id,
	}, nil
}
