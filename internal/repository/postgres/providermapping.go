package postgres

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/providermapping"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/postgres"
	"github.com/billingbridge/billingbridge/internal/types"
)

type providerMappingRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewProviderMappingRepository(db *postgres.DB, logger *logger.Logger) providermapping.Repository {
	return &providerMappingRepository{db: db, logger: logger}
}

const providerMappingInsert = `
	INSERT INTO provider_mappings (
		id,
		entity_type,
		entity_id,
		provider,
		provider_entity_id,
		metadata,
		tenant_id,
		status,
		created_at,
		updated_at,
		created_by,
		updated_by
	) VALUES (
		:id,
		:entity_type,
		:entity_id,
		:provider,
		:provider_entity_id,
		:metadata,
		:tenant_id,
		:status,
		:created_at,
		:updated_at,
		:created_by,
		:updated_by
	)
`

func (r *providerMappingRepository) Create(ctx context.Context, mapping *providermapping.ProviderMapping) error {
	_, err := r.db.NamedExecContext(ctx, providerMappingInsert, mapping)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create provider mapping").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// CreateOrGet inserts the mapping or returns the existing row for the same
// (provider, entity_type, provider_entity_id). The unique constraint arbitrates
// concurrent discoveries; no check-then-insert race exists.
func (r *providerMappingRepository) CreateOrGet(ctx context.Context, mapping *providermapping.ProviderMapping) (bool, *providermapping.ProviderMapping, error) {
	query := providerMappingInsert + ` ON CONFLICT (tenant_id, provider, entity_type, provider_entity_id) DO NOTHING`

	res, err := r.db.NamedExecContext(ctx, query, mapping)
	if err != nil {
		return false, nil, ierr.WithError(err).
			WithHint("Failed to create provider mapping").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, nil, ierr.WithError(err).
			WithHint("Failed to create provider mapping").
			Mark(ierr.ErrDatabase)
	}
	if affected > 0 {
		return true, mapping, nil
	}

	existing, err := r.GetByProviderEntityID(ctx, mapping.Provider, mapping.EntityType, mapping.ProviderEntityID)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

func (r *providerMappingRepository) Get(ctx context.Context, id string) (*providermapping.ProviderMapping, error) {
	query := `
		SELECT * FROM provider_mappings
		WHERE id = :id AND tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get provider mapping").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("provider mapping not found").
			WithHintf("Provider mapping with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	var m providermapping.ProviderMapping
	if err := rows.StructScan(&m); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan provider mapping").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *providerMappingRepository) GetByProviderEntityID(ctx context.Context, provider types.ProviderType, entityType types.MappingEntityType, providerEntityID string) (*providermapping.ProviderMapping, error) {
	query := `
		SELECT * FROM provider_mappings
		WHERE
			provider = :provider AND
			entity_type = :entity_type AND
			provider_entity_id = :provider_entity_id AND
			tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"provider":           provider,
		"entity_type":        entityType,
		"provider_entity_id": providerEntityID,
		"tenant_id":          types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get provider mapping").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("provider mapping not found").
			WithHintf("No mapping for %s %s %s", provider, entityType, providerEntityID).
			Mark(ierr.ErrNotFound)
	}

	var m providermapping.ProviderMapping
	if err := rows.StructScan(&m); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan provider mapping").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *providerMappingRepository) GetByEntity(ctx context.Context, entityType types.MappingEntityType, entityID string) ([]*providermapping.ProviderMapping, error) {
	query := `
		SELECT * FROM provider_mappings
		WHERE
			entity_type = :entity_type AND
			entity_id = :entity_id AND
			tenant_id = :tenant_id
	`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"entity_type": entityType,
		"entity_id":   entityID,
		"tenant_id":   types.GetTenantID(ctx),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list provider mappings").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var mappings []*providermapping.ProviderMapping
	for rows.Next() {
		var m providermapping.ProviderMapping
		if err := rows.StructScan(&m); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan provider mapping").
				Mark(ierr.ErrDatabase)
		}
		mappings = append(mappings, &m)
	}
	return mappings, nil
}

func (r *providerMappingRepository) Update(ctx context.Context, mapping *providermapping.ProviderMapping) error {
	query := `
		UPDATE provider_mappings SET
			entity_id = :entity_id,
			metadata = :metadata,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id
	`

	mapping.UpdatedAt = time.Now().UTC()
	mapping.UpdatedBy = types.GetUserID(ctx)

	_, err := r.db.NamedExecContext(ctx, query, mapping)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update provider mapping").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *providerMappingRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM provider_mappings
		WHERE id = :id AND tenant_id = :tenant_id
	`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":        id,
		"tenant_id": types.GetTenantID(ctx),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete provider mapping").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
