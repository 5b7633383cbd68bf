package model

import "time"

// OutboxEvent is a durable domain-event row written in the same transaction
// as the business mutation it describes. Only the relay mutates it after
// insert (attempts, last_error, lease columns, processed_at).
type OutboxEvent struct {
	ID            string     `db:"id"`
	EventType     string     `db:"event_type"`   // e.g. "UserRegistered"
	AggregateID   *string    `db:"aggregate_id"` // nullable for system-level events
	Payload       []byte     `db:"payload"`      // opaque JSON, immutable once written
	Attempts      int        `db:"attempts"`     // increments on every delivery attempt
	LastError     *string    `db:"last_error"`   // left stale after a later success, for audit
	NextAttemptAt time.Time  `db:"next_attempt_at"`
	LockedBy      *string    `db:"locked_by"`
	LockedUntil   *time.Time `db:"locked_until"`
	CreatedAt     time.Time  `db:"created_at"`
	ProcessedAt   *time.Time `db:"processed_at"` // set exactly once, terminal
}

// Processed reports whether the event reached its terminal delivered state.
func (e OutboxEvent) Processed() bool { return e.ProcessedAt != nil }

// Dead reports whether the event exhausted its retry budget without delivery.
func (e OutboxEvent) Dead(maxAttempts int) bool {
	return e.ProcessedAt == nil && e.Attempts >= maxAttempts
}
