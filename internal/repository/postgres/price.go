package postgres

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/price"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/postgres"
	"github.com/billingbridge/billingbridge/internal/types"
)

type priceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPriceRepository(db *postgres.DB, logger *logger.Logger) price.Repository {
	return &priceRepository{db: db, logger: logger}
}

func (r *priceRepository) Create(ctx context.Context, p *price.Price) error {
	query := `
		INSERT INTO prices (
			id,
			lookup_key,
			product_id,
			amount,
			display_amount,
			currency,
			type,
			billing_period,
			billing_period_count,
			trial_period_days,
			metadata,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:lookup_key,
			:product_id,
			:amount,
			:display_amount,
			:currency,
			:type,
			:billing_period,
			:billing_period_count,
			:trial_period_days,
			:metadata,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *priceRepository) Get(ctx context.Context, id string) (*price.Price, error) {
	query := `
		SELECT * FROM prices
		WHERE id = :id AND tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get price").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("price not found").
			WithHintf("Price with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	var p price.Price
	if err := rows.StructScan(&p); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan price").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *priceRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*price.Price, error) {
	query := `
		SELECT * FROM prices
		WHERE lookup_key = :lookup_key AND tenant_id = :tenant_id AND status != :deleted
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"lookup_key": lookupKey,
		"tenant_id":  types.GetTenantID(ctx),
		"deleted":    types.StatusDeleted,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get price by lookup key").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("price not found").
			WithHintf("Price with lookup key %s was not found", lookupKey).
			Mark(ierr.ErrNotFound)
	}

	var p price.Price
	if err := rows.StructScan(&p); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan price").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *priceRepository) GetByProductID(ctx context.Context, productID string) ([]*price.Price, error) {
	query := `
		SELECT * FROM prices
		WHERE product_id = :product_id AND tenant_id = :tenant_id AND status != :deleted
		ORDER BY created_at ASC
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"product_id": productID,
		"tenant_id":  types.GetTenantID(ctx),
		"deleted":    types.StatusDeleted,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list prices by product").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var prices []*price.Price
	for rows.Next() {
		var p price.Price
		if err := rows.StructScan(&p); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan price").
				Mark(ierr.ErrDatabase)
		}
		prices = append(prices, &p)
	}
	return prices, nil
}

func (r *priceRepository) Update(ctx context.Context, p *price.Price) error {
	// Amount, currency and interval are immutable; only mutable fields are
	// written back.
	query := `
		UPDATE prices SET
			trial_period_days = :trial_period_days,
			metadata = :metadata,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	p.UpdatedAt = time.Now().UTC()
	p.UpdatedBy = types.GetUserID(ctx)

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *priceRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE prices SET
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"status":     types.StatusDeleted,
		"updated_at": time.Now().UTC(),
		"updated_by": types.GetUserID(ctx),
		"id":         id,
		"tenant_id":  types.GetTenantID(ctx),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
