package providermapping

import (
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// ProviderMapping associates a local catalog entity with its identifier at a
// billing provider. A mapping whose EntityID is empty is a tombstone: the
// remote object was discovered before its local counterpart existed.
// Reconciliation links tombstones to newly created entities instead of
// creating duplicate mappings.
type ProviderMapping struct {
	// ID is the unique identifier for the mapping
	ID string `db:"id" json:"id"`

	// EntityType is product or price
	EntityType types.MappingEntityType `db:"entity_type" json:"entity_type"`

	// EntityID is the local entity id; empty for tombstones
	EntityID string `db:"entity_id" json:"entity_id"`

	// Provider is the billing platform this mapping belongs to
	Provider types.ProviderType `db:"provider" json:"provider"`

	// ProviderEntityID is the provider's identifier for the object
	ProviderEntityID string `db:"provider_entity_id" json:"provider_entity_id"`

	// Metadata contains provider-specific data
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// IsTombstone reports whether the mapping has no local entity yet
func (m *ProviderMapping) IsTombstone() bool {
	return m.EntityID == ""
}

func (m *ProviderMapping) Validate() error {
	if !m.Provider.Validate() {
		return ierr.NewError("invalid provider").
			WithHintf("Provider %q is not supported", m.Provider).
			Mark(ierr.ErrValidation)
	}
	if m.ProviderEntityID == "" {
		return ierr.NewError("provider_entity_id is required").
			WithHint("Provider entity ID cannot be empty").
			Mark(ierr.ErrValidation)
	}
	switch m.EntityType {
	case types.MappingEntityProduct, types.MappingEntityPrice:
	default:
		return ierr.NewError("invalid entity_type").
			WithHintf("Entity type %q is not supported", m.EntityType).
			Mark(ierr.ErrValidation)
	}
	return nil
}
