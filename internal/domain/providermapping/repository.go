package providermapping

import (
	"context"

	"github.com/billingbridge/billingbridge/internal/types"
)

// Repository defines the interface for provider mapping data access.
// CreateOrGet must be backed by a unique constraint on
// (provider, entity_type, provider_entity_id), not check-then-insert, so
// concurrent discoveries of the same remote object cannot race into
// duplicates.
type Repository interface {
	Create(ctx context.Context, mapping *ProviderMapping) error
	CreateOrGet(ctx context.Context, mapping *ProviderMapping) (created bool, out *ProviderMapping, err error)
	Get(ctx context.Context, id string) (*ProviderMapping, error)
	GetByProviderEntityID(ctx context.Context, provider types.ProviderType, entityType types.MappingEntityType, providerEntityID string) (*ProviderMapping, error)
	GetByEntity(ctx context.Context, entityType types.MappingEntityType, entityID string) ([]*ProviderMapping, error)
	Update(ctx context.Context, mapping *ProviderMapping) error
	Delete(ctx context.Context, id string) error
}
