package postgres

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/discount"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/postgres"
	"github.com/billingbridge/billingbridge/internal/types"
)

type discountRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewDiscountRepository(db *postgres.DB, logger *logger.Logger) discount.Repository {
	return &discountRepository{db: db, logger: logger}
}

func (r *discountRepository) Create(ctx context.Context, d *discount.Discount) error {
	query := `
		INSERT INTO discounts (
			id,
			lookup_key,
			provider,
			provider_id,
			percent_off,
			amount_off,
			currency,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:lookup_key,
			:provider,
			:provider_id,
			:percent_off,
			:amount_off,
			:currency,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, d)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create discount").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *discountRepository) Get(ctx context.Context, id string) (*discount.Discount, error) {
	query := `
		SELECT * FROM discounts
		WHERE id = :id AND tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get discount").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("discount not found").
			WithHintf("Discount with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	var d discount.Discount
	if err := rows.StructScan(&d); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan discount").
			Mark(ierr.ErrDatabase)
	}
	return &d, nil
}

func (r *discountRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*discount.Discount, error) {
	query := `
		SELECT * FROM discounts
		WHERE lookup_key = :lookup_key AND tenant_id = :tenant_id AND status != :deleted
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"lookup_key": lookupKey,
		"tenant_id":  types.GetTenantID(ctx),
		"deleted":    types.StatusDeleted,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get discount by lookup key").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("discount not found").
			WithHintf("Discount with lookup key %s was not found", lookupKey).
			Mark(ierr.ErrNotFound)
	}

	var d discount.Discount
	if err := rows.StructScan(&d); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan discount").
			Mark(ierr.ErrDatabase)
	}
	return &d, nil
}

func (r *discountRepository) Update(ctx context.Context, d *discount.Discount) error {
	query := `
		UPDATE discounts SET
			provider = :provider,
			provider_id = :provider_id,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	d.UpdatedAt = time.Now().UTC()
	d.UpdatedBy = types.GetUserID(ctx)

	_, err := r.db.NamedExecContext(ctx, query, d)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update discount").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
