package discount

import (
	"context"
)

// Repository defines the interface for discount data access
type Repository interface {
	Create(ctx context.Context, discount *Discount) error
	Get(ctx context.Context, id string) (*Discount, error)
	GetByLookupKey(ctx context.Context, lookupKey string) (*Discount, error)
	Update(ctx context.Context, discount *Discount) error
}
