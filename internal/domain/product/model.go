package product

import (
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Product is a sellable item. Provider identity is held in provider mappings,
// never inline, so one product can exist at several providers.
type Product struct {
	// ID is the unique identifier for the product
	ID string `db:"id" json:"id"`

	// LookupKey is the stable business identifier (the plan key)
	LookupKey string `db:"lookup_key" json:"lookup_key"`

	// Name is the display name of the product
	Name string `db:"name" json:"name"`

	// Description is an optional long-form description
	Description string `db:"description" json:"description"`

	// SeatBased marks plans billed per seat
	SeatBased bool `db:"seat_based" json:"seat_based"`

	// Featured marks plans highlighted on pricing pages
	Featured bool `db:"featured" json:"featured"`

	// Metadata contains additional custom fields
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// Active reports whether the product is sellable
func (p *Product) Active() bool {
	return p.Status == types.StatusPublished
}

func (p *Product) Validate() error {
	if p.LookupKey == "" {
		return ierr.NewError("lookup_key is required").
			WithHint("Product lookup key cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if p.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Product name cannot be empty").
			Mark(ierr.ErrValidation)
	}
	return nil
}
