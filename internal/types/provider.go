package types

// ProviderType identifies an external billing platform
type ProviderType string

const (
	ProviderStripe ProviderType = "stripe"
	ProviderPaddle ProviderType = "paddle"
)

func (p ProviderType) String() string {
	return string(p)
}

func (p ProviderType) Validate() bool {
	switch p {
	case ProviderStripe, ProviderPaddle:
		return true
	}
	return false
}

// MappingEntityType is the kind of catalog entity a provider mapping refers to
type MappingEntityType string

const (
	MappingEntityProduct MappingEntityType = "product"
	MappingEntityPrice   MappingEntityType = "price"
)

// OutboxEntityType is the kind of remote object a deletion outbox entry targets
type OutboxEntityType string

const (
	OutboxEntityProduct OutboxEntityType = "product"
	OutboxEntityPrice   OutboxEntityType = "price"
)
