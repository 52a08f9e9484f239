package types

import "encoding/json"

// WebhookEventStatus is the processing status of a stored webhook event
type WebhookEventStatus string

const (
	WebhookEventStatusPending   WebhookEventStatus = "pending"
	WebhookEventStatusProcessed WebhookEventStatus = "processed"
	WebhookEventStatusFailed    WebhookEventStatus = "failed"
)

// NormalizedEvent is the provider-agnostic envelope produced by webhook
// verification. Payload carries the provider's object body: for Stripe the
// contents of data.object, for Paddle the flat data body.
type NormalizedEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
