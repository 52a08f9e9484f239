package postgres

import (
	"context"

	"github.com/billingbridge/billingbridge/internal/domain/webhookevent"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/postgres"
	"github.com/billingbridge/billingbridge/internal/types"
)

type webhookEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: logger}
}

// Record inserts the event or fetches the stored row when the same
// (provider, external_event_id) was already delivered. created=false tells the
// caller to skip handler invocation.
func (r *webhookEventRepository) Record(ctx context.Context, event *webhookevent.WebhookEvent) (bool, *webhookevent.WebhookEvent, error) {
	query := `
		INSERT INTO webhook_events (
			id,
			provider,
			external_event_id,
			type,
			payload,
			event_status,
			processed_at,
			attempts,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:provider,
			:external_event_id,
			:type,
			:payload,
			:event_status,
			:processed_at,
			:attempts,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
		ON CONFLICT (provider, external_event_id) DO NOTHING
	`

	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return false, nil, ierr.WithError(err).
			WithHint("Failed to record webhook event").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, nil, ierr.WithError(err).
			WithHint("Failed to record webhook event").
			Mark(ierr.ErrDatabase)
	}
	if affected > 0 {
		return true, event, nil
	}

	existing, err := r.GetByExternalID(ctx, event.Provider, event.ExternalEventID)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

func (r *webhookEventRepository) Get(ctx context.Context, id string) (*webhookevent.WebhookEvent, error) {
	query := `
		SELECT * FROM webhook_events
		WHERE id = :id AND tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get webhook event").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("webhook event not found").
			WithHintf("Webhook event with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	var ev webhookevent.WebhookEvent
	if err := rows.StructScan(&ev); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan webhook event").
			Mark(ierr.ErrDatabase)
	}
	return &ev, nil
}

func (r *webhookEventRepository) GetByExternalID(ctx context.Context, provider types.ProviderType, externalEventID string) (*webhookevent.WebhookEvent, error) {
	query := `
		SELECT * FROM webhook_events
		WHERE
			provider = :provider AND
			external_event_id = :external_event_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"provider":          provider,
		"external_event_id": externalEventID,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get webhook event").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("webhook event not found").
			WithHintf("No stored event for %s %s", provider, externalEventID).
			Mark(ierr.ErrNotFound)
	}

	var ev webhookevent.WebhookEvent
	if err := rows.StructScan(&ev); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan webhook event").
			Mark(ierr.ErrDatabase)
	}
	return &ev, nil
}

func (r *webhookEventRepository) ListByStatus(ctx context.Context, status types.WebhookEventStatus, limit int) ([]*webhookevent.WebhookEvent, error) {
	query := `
		SELECT * FROM webhook_events
		WHERE event_status = :event_status
		ORDER BY created_at ASC
		LIMIT :limit
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"event_status": status,
		"limit":        limit,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list webhook events").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var events []*webhookevent.WebhookEvent
	for rows.Next() {
		var ev webhookevent.WebhookEvent
		if err := rows.StructScan(&ev); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan webhook event").
				Mark(ierr.ErrDatabase)
		}
		events = append(events, &ev)
	}
	return events, nil
}

func (r *webhookEventRepository) Update(ctx context.Context, event *webhookevent.WebhookEvent) error {
	query := `
		UPDATE webhook_events SET
			event_status = :event_status,
			processed_at = :processed_at,
			attempts = :attempts,
			updated_at = :updated_at
		WHERE id = :id
	`

	_, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update webhook event").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
