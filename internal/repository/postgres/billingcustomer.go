package postgres

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/billingcustomer"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/postgres"
	"github.com/billingbridge/billingbridge/internal/types"
)

type billingCustomerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBillingCustomerRepository(db *postgres.DB, logger *logger.Logger) billingcustomer.Repository {
	return &billingCustomerRepository{db: db, logger: logger}
}

// CreateOrGet inserts the customer link or returns the existing row for the
// same (provider, provider_customer_id). Concurrent self-heals for the same
// customer collapse into one row.
func (r *billingCustomerRepository) CreateOrGet(ctx context.Context, customer *billingcustomer.BillingCustomer) (bool, *billingcustomer.BillingCustomer, error) {
	query := `
		INSERT INTO billing_customers (
			id,
			provider,
			provider_customer_id,
			user_id,
			email,
			metadata,
			tenant_id,
			status,
			created_at,
			updated_at,
			created_by,
			updated_by
		) VALUES (
			:id,
			:provider,
			:provider_customer_id,
			:user_id,
			:email,
			:metadata,
			:tenant_id,
			:status,
			:created_at,
			:updated_at,
			:created_by,
			:updated_by
		)
		ON CONFLICT (provider, provider_customer_id) DO NOTHING
	`

	res, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		return false, nil, ierr.WithError(err).
			WithHint("Failed to create billing customer").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, nil, ierr.WithError(err).
			WithHint("Failed to create billing customer").
			Mark(ierr.ErrDatabase)
	}
	if affected > 0 {
		return true, customer, nil
	}

	existing, err := r.GetByProviderCustomerID(ctx, customer.Provider, customer.ProviderCustomerID)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

func (r *billingCustomerRepository) Get(ctx context.Context, id string) (*billingcustomer.BillingCustomer, error) {
	query := `
		SELECT * FROM billing_customers
		WHERE id = :id AND tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get billing customer").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("billing customer not found").
			WithHintf("Billing customer with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	var c billingcustomer.BillingCustomer
	if err := rows.StructScan(&c); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan billing customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *billingCustomerRepository) GetByProviderCustomerID(ctx context.Context, provider types.ProviderType, providerCustomerID string) (*billingcustomer.BillingCustomer, error) {
	query := `
		SELECT * FROM billing_customers
		WHERE
			provider = :provider AND
			provider_customer_id = :provider_customer_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"provider":             provider,
		"provider_customer_id": providerCustomerID,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get billing customer").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("billing customer not found").
			WithHintf("No billing customer for %s %s", provider, providerCustomerID).
			Mark(ierr.ErrNotFound)
	}

	var c billingcustomer.BillingCustomer
	if err := rows.StructScan(&c); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan billing customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *billingCustomerRepository) GetByUserID(ctx context.Context, provider types.ProviderType, userID string) (*billingcustomer.BillingCustomer, error) {
	query := `
		SELECT * FROM billing_customers
		WHERE
			provider = :provider AND
			user_id = :user_id AND
			tenant_id = :tenant_id
		ORDER BY created_at DESC
		LIMIT 1
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"provider":  provider,
		"user_id":   userID,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get billing customer").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("billing customer not found").
			WithHintf("No billing customer for user %s at %s", userID, provider).
			Mark(ierr.ErrNotFound)
	}

	var c billingcustomer.BillingCustomer
	if err := rows.StructScan(&c); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan billing customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *billingCustomerRepository) Update(ctx context.Context, customer *billingcustomer.BillingCustomer) error {
	query := `
		UPDATE billing_customers SET
			user_id = :user_id,
			email = :email,
			metadata = :metadata,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	customer.UpdatedAt = time.Now().UTC()
	customer.UpdatedBy = types.GetUserID(ctx)

	_, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update billing customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
