package types

import (
	"encoding/json"
	"time"
)

// Domain event names published on the outbound bus. Consumers (notification,
// entitlement cache invalidation) subscribe to these topics externally.
const (
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.canceled"
	EventSubscriptionResumed  = "subscription.resumed"
	EventSubscriptionEnded    = "subscription.ended"
	EventCatalogSynced        = "catalog.synced"
	EventProviderPushFailed   = "provider.push_failed"
)

// DomainEvent is the stable outbound event contract
type DomainEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewDomainEvent builds an event with a generated id and current timestamp
func NewDomainEvent(name string, tenantID string, payload interface{}) *DomainEvent {
	raw, _ := json.Marshal(payload)
	return &DomainEvent{
		ID:        GenerateUUIDWithPrefix(UUID_PREFIX_DOMAIN_EVENT),
		EventName: name,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}
}
