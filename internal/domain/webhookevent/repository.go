package webhookevent

import (
	"context"

	"github.com/billingbridge/billingbridge/internal/types"
)

// Repository defines the interface for webhook event data access.
// Record must be an insert-or-fetch backed by the unique constraint on
// (provider, external_event_id); callers use created=false to skip handler
// invocation for re-deliveries.
type Repository interface {
	Record(ctx context.Context, event *WebhookEvent) (created bool, out *WebhookEvent, err error)
	Get(ctx context.Context, id string) (*WebhookEvent, error)
	GetByExternalID(ctx context.Context, provider types.ProviderType, externalEventID string) (*WebhookEvent, error)
	ListByStatus(ctx context.Context, status types.WebhookEventStatus, limit int) ([]*WebhookEvent, error)
	Update(ctx context.Context, event *WebhookEvent) error
}
