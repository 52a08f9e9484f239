package postgres

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/outbox"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/postgres"
	"github.com/billingbridge/billingbridge/internal/types"
)

type outboxRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewOutboxRepository(db *postgres.DB, logger *logger.Logger) outbox.Repository {
	return &outboxRepository{db: db, logger: logger}
}

// FirstOrCreate inserts the entry or returns the existing row for the same
// (provider, entity_type, provider_entity_id). Completed entries are returned
// as-is; the caller decides they are terminal.
func (r *outboxRepository) FirstOrCreate(ctx context.Context, entry *outbox.Entry) (bool, *outbox.Entry, error) {
	query := `
		INSERT INTO deletion_outbox (
			id,
			provider,
			entity_type,
			provider_entity_id,
			outbox_status,
			attempts,
			last_error,
			next_attempt_at,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:provider,
			:entity_type,
			:provider_entity_id,
			:outbox_status,
			:attempts,
			:last_error,
			:next_attempt_at,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
		ON CONFLICT (provider, entity_type, provider_entity_id) DO NOTHING
	`

	res, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return false, nil, ierr.WithError(err).
			WithHint("Failed to enqueue deletion").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, nil, ierr.WithError(err).
			WithHint("Failed to enqueue deletion").
			Mark(ierr.ErrDatabase)
	}
	if affected > 0 {
		return true, entry, nil
	}

	existing, err := r.GetByKey(ctx, entry.Provider, entry.EntityType, entry.ProviderEntityID)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

func (r *outboxRepository) Get(ctx context.Context, id string) (*outbox.Entry, error) {
	query := `
		SELECT * FROM deletion_outbox
		WHERE id = :id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get outbox entry").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("outbox entry not found").
			WithHintf("Outbox entry with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	var e outbox.Entry
	if err := rows.StructScan(&e); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan outbox entry").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *outboxRepository) GetByKey(ctx context.Context, provider types.ProviderType, entityType types.OutboxEntityType, providerEntityID string) (*outbox.Entry, error) {
	query := `
		SELECT * FROM deletion_outbox
		WHERE
			provider = :provider AND
			entity_type = :entity_type AND
			provider_entity_id = :provider_entity_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"provider":           provider,
		"entity_type":        entityType,
		"provider_entity_id": providerEntityID,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get outbox entry").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("outbox entry not found").
			WithHintf("No outbox entry for %s %s %s", provider, entityType, providerEntityID).
			Mark(ierr.ErrNotFound)
	}

	var e outbox.Entry
	if err := rows.StructScan(&e); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan outbox entry").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

// ListDue returns pending entries plus failed entries whose next attempt has
// come due and whose attempt budget is not exhausted.
func (r *outboxRepository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]*outbox.Entry, error) {
	query := `
		SELECT * FROM deletion_outbox
		WHERE
			outbox_status = :pending OR (
				outbox_status = :failed AND
				attempts < :max_attempts AND
				next_attempt_at IS NOT NULL AND
				next_attempt_at <= :as_of
			)
		ORDER BY created_at ASC
		LIMIT :limit
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"pending":      types.OutboxStatusPending,
		"failed":       types.OutboxStatusFailed,
		"max_attempts": outbox.MaxAttempts,
		"as_of":        asOf,
		"limit":        limit,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list due outbox entries").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var entries []*outbox.Entry
	for rows.Next() {
		var e outbox.Entry
		if err := rows.StructScan(&e); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan outbox entry").
				Mark(ierr.ErrDatabase)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

func (r *outboxRepository) Update(ctx context.Context, entry *outbox.Entry) error {
	query := `
		UPDATE deletion_outbox SET
			outbox_status = :outbox_status,
			attempts = :attempts,
			last_error = :last_error,
			next_attempt_at = :next_attempt_at,
			updated_at = :updated_at
		WHERE id = :id
	`

	_, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update outbox entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
