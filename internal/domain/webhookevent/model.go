package webhookevent

import (
	"encoding/json"
	"time"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// WebhookEvent is a stored inbound provider event. The unique pair
// (provider, external_event_id) is the idempotency key protecting against
// at-least-once delivery.
type WebhookEvent struct {
	// ID is the unique identifier for the stored event
	ID string `db:"id" json:"id"`

	// Provider is the billing platform that delivered the event
	Provider types.ProviderType `db:"provider" json:"provider"`

	// ExternalEventID is the provider's event id, unique per provider
	ExternalEventID string `db:"external_event_id" json:"external_event_id"`

	// Type is the provider's event type string
	Type string `db:"type" json:"type"`

	// Payload is the normalized event body
	Payload json.RawMessage `db:"payload" json:"payload"`

	// EventStatus is pending, processed or failed. processed is terminal.
	EventStatus types.WebhookEventStatus `db:"event_status" json:"event_status"`

	// ProcessedAt is when the event reached a terminal status
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`

	// Attempts counts handler invocations, for manual replay triage
	Attempts int `db:"attempts" json:"attempts"`

	types.BaseModel
}

// New builds a pending event record from a normalized envelope
func New(provider types.ProviderType, ev *types.NormalizedEvent) *WebhookEvent {
	return &WebhookEvent{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		Provider:        provider,
		ExternalEventID: ev.ID,
		Type:            ev.Type,
		Payload:         ev.Payload,
		EventStatus:     types.WebhookEventStatusPending,
	}
}

// MarkProcessed transitions the event to processed. No transition out of
// processed exists.
func (e *WebhookEvent) MarkProcessed(now time.Time) {
	if e.EventStatus == types.WebhookEventStatusProcessed {
		return
	}
	e.EventStatus = types.WebhookEventStatusProcessed
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a handler failure, keeping the event for manual replay
func (e *WebhookEvent) MarkFailed(now time.Time) {
	if e.EventStatus == types.WebhookEventStatusProcessed {
		return
	}
	e.EventStatus = types.WebhookEventStatusFailed
	e.Attempts++
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

func (e *WebhookEvent) Validate() error {
	if !e.Provider.Validate() {
		return ierr.NewError("invalid provider").
			WithHintf("Provider %q is not supported", e.Provider).
			Mark(ierr.ErrValidation)
	}
	if e.ExternalEventID == "" {
		return ierr.NewError("external_event_id is required").
			WithHint("Webhook event must carry the provider event id").
			Mark(ierr.ErrValidation)
	}
	if e.Type == "" {
		return ierr.NewError("type is required").
			WithHint("Webhook event must carry an event type").
			Mark(ierr.ErrValidation)
	}
	return nil
}
