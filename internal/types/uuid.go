package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex price_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_PRODUCT          = "prod"
	UUID_PREFIX_PRICE            = "price"
	UUID_PREFIX_SUBSCRIPTION     = "subs"
	UUID_PREFIX_WEBHOOK_EVENT    = "whe"
	UUID_PREFIX_OUTBOX           = "obx"
	UUID_PREFIX_DISCOUNT         = "disc"
	UUID_PREFIX_BILLING_CUSTOMER = "bcust"
	UUID_PREFIX_PROVIDER_MAPPING = "pmap"
	UUID_PREFIX_DOMAIN_EVENT     = "evt"
)
