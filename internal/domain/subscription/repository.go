package subscription

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/types"
)

// Repository defines the interface for subscription data access
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*Subscription, error)
	ListByUserID(ctx context.Context, userID string) ([]*Subscription, error)
	ListExpired(ctx context.Context, asOf time.Time) ([]*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
}
