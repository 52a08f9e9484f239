package types

// OutboxStatus is the state of a deletion outbox entry.
// completed is terminal: a completed entry is never re-enqueued.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusCompleted OutboxStatus = "completed"
	OutboxStatusFailed    OutboxStatus = "failed"
)
