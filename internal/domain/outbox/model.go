package outbox

import (
	"time"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// MaxAttempts bounds outbox processing: the first attempt plus one retry per
// rung of RetrySchedule. After exhaustion the entry stays failed and visible
// for manual remediation.
const MaxAttempts = 4

// RetrySchedule is the cross-invocation backoff ladder; the delay after the
// Nth failure is the Nth rung.
var RetrySchedule = []time.Duration{10 * time.Second, 30 * time.Second, 120 * time.Second}

// Entry is a durable record of a provider-side deletion that must eventually
// happen. Keyed uniquely on (provider, entity_type, provider_entity_id) so
// re-flagging the same remote object never duplicates work.
type Entry struct {
	// ID is the unique identifier for the entry
	ID string `db:"id" json:"id"`

	// Provider is the billing platform holding the object to delete
	Provider types.ProviderType `db:"provider" json:"provider"`

	// EntityType is product or price
	EntityType types.OutboxEntityType `db:"entity_type" json:"entity_type"`

	// ProviderEntityID is the remote object's id
	ProviderEntityID string `db:"provider_entity_id" json:"provider_entity_id"`

	// OutboxStatus is pending, completed or failed. completed is terminal.
	OutboxStatus types.OutboxStatus `db:"outbox_status" json:"outbox_status"`

	// Attempts counts provider delete attempts
	Attempts int `db:"attempts" json:"attempts"`

	// LastError keeps the latest failure reason for operators
	LastError string `db:"last_error" json:"last_error,omitempty"`

	// NextAttemptAt schedules the next retry; nil when none is due
	NextAttemptAt *time.Time `db:"next_attempt_at" json:"next_attempt_at,omitempty"`

	types.BaseModel
}

// MarkCompleted transitions the entry to its terminal state
func (e *Entry) MarkCompleted(now time.Time) {
	e.OutboxStatus = types.OutboxStatusCompleted
	e.LastError = ""
	e.NextAttemptAt = nil
	e.UpdatedAt = now
}

// MarkFailed records a failed attempt and schedules the next retry from the
// backoff ladder. After MaxAttempts no retry is scheduled.
func (e *Entry) MarkFailed(now time.Time, cause error) {
	e.OutboxStatus = types.OutboxStatusFailed
	e.Attempts++
	if cause != nil {
		e.LastError = cause.Error()
	}
	if e.Attempts < MaxAttempts {
		next := now.Add(RetrySchedule[e.Attempts-1])
		e.NextAttemptAt = &next
	} else {
		e.NextAttemptAt = nil
	}
	e.UpdatedAt = now
}

// Retryable reports whether the entry is due for another attempt
func (e *Entry) Retryable(now time.Time) bool {
	switch e.OutboxStatus {
	case types.OutboxStatusPending:
		return true
	case types.OutboxStatusFailed:
		return e.Attempts < MaxAttempts && e.NextAttemptAt != nil && !now.Before(*e.NextAttemptAt)
	}
	return false
}

func (e *Entry) Validate() error {
	if !e.Provider.Validate() {
		return ierr.NewError("invalid provider").
			WithHintf("Provider %q is not supported", e.Provider).
			Mark(ierr.ErrValidation)
	}
	if e.ProviderEntityID == "" {
		return ierr.NewError("provider_entity_id is required").
			WithHint("Outbox entry must carry the remote object id").
			Mark(ierr.ErrValidation)
	}
	switch e.EntityType {
	case types.OutboxEntityProduct, types.OutboxEntityPrice:
	default:
		return ierr.NewError("invalid entity_type").
			WithHintf("Entity type %q is not supported", e.EntityType).
			Mark(ierr.ErrValidation)
	}
	return nil
}
