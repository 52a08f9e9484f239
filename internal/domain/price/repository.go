package price

import (
	"context"
)

// Repository defines the interface for price data access
type Repository interface {
	Create(ctx context.Context, price *Price) error
	Get(ctx context.Context, id string) (*Price, error)
	GetByLookupKey(ctx context.Context, lookupKey string) (*Price, error)
	GetByProductID(ctx context.Context, productID string) ([]*Price, error)
	Update(ctx context.Context, price *Price) error
	Delete(ctx context.Context, id string) error
}
