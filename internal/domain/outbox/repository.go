package outbox

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/types"
)

// Repository defines the interface for deletion outbox data access.
// FirstOrCreate must be backed by the unique constraint on
// (provider, entity_type, provider_entity_id).
type Repository interface {
	FirstOrCreate(ctx context.Context, entry *Entry) (created bool, out *Entry, err error)
	Get(ctx context.Context, id string) (*Entry, error)
	GetByKey(ctx context.Context, provider types.ProviderType, entityType types.OutboxEntityType, providerEntityID string) (*Entry, error)
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]*Entry, error)
	Update(ctx context.Context, entry *Entry) error
}
