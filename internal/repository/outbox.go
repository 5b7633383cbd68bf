package repository

import (
	"context"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/jmoiron/sqlx"
)

const outboxColumns = `
	id, event_type, aggregate_id, payload, attempts, last_error,
	next_attempt_at, locked_by, locked_until, created_at, processed_at
`

// OutboxRepository defines persistence methods for the outbox_events table.
type OutboxRepository interface {
	// Insert writes a single outbox event. If tx is nil, it will open/commit
	// an internal transaction; otherwise it uses the given tx so the event
	// commits or rolls back together with the domain write.
	Insert(ctx context.Context, tx *sqlx.Tx, ev model.OutboxEvent) error

	// ClaimBatch leases up to limit eligible events for workerID until
	// now+leaseFor and returns them oldest-first. Eligible means: not
	// processed, attempts below maxAttempts, next_attempt_at due, and no
	// live lease held by another worker.
	ClaimBatch(ctx context.Context, workerID string, limit int, leaseFor time.Duration, maxAttempts int, now time.Time) ([]model.OutboxEvent, error)

	// MarkProcessed records a successful delivery: sets processed_at once,
	// counts the attempt, and releases the lease.
	MarkProcessed(ctx context.Context, id, workerID string, now time.Time) error

	// MarkFailed records a failed delivery: counts the attempt, overwrites
	// last_error, gates the next retry at nextAttemptAt, releases the lease.
	MarkFailed(ctx context.Context, id, workerID, lastError string, nextAttemptAt time.Time) error

	// ReleaseClaims drops every lease held by workerID. Called on shutdown
	// so no event stays claimed by a worker that is gone.
	ReleaseClaims(ctx context.Context, workerID string) error

	// DeadLetters returns undelivered events that exhausted their retry
	// budget, oldest-first, for operator intervention.
	DeadLetters(ctx context.Context, maxAttempts, limit int) ([]model.OutboxEvent, error)

	CountPending(ctx context.Context, maxAttempts int) (int64, error)
	CountDead(ctx context.Context, maxAttempts int) (int64, error)
}

// OutboxRepositoryImpl is a sqlx-backed implementation.
type OutboxRepositoryImpl struct {
	db *sqlx.DB
}

// NewOutboxRepository constructs an OutboxRepositoryImpl.
func NewOutboxRepository(db *sqlx.DB) *OutboxRepositoryImpl {
	return &OutboxRepositoryImpl{db: db}
}

var _ OutboxRepository = (*OutboxRepositoryImpl)(nil)

// withTx runs fn in the provided tx, or starts a new transaction when tx is nil.
func (r *OutboxRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}

	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}

	return t.Commit()
}

func (r *OutboxRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, ev model.OutboxEvent) error {
	const q = `
		INSERT INTO outbox_events
		    (id, event_type, aggregate_id, payload, attempts, next_attempt_at, created_at)
		VALUES
		    (?,  ?,          ?,            ?,       0,        NOW(),           NOW())
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, ev.ID, ev.EventType, ev.AggregateID, ev.Payload)

		return err
	})
}

// ClaimBatch takes the lease in a single UPDATE keyed on (locked_by,
// locked_until), then reads back the claimed rows. Two workers racing on
// the same rows cannot both win the UPDATE, so the pending set is
// partitioned rather than double-delivered.
func (r *OutboxRepositoryImpl) ClaimBatch(ctx context.Context, workerID string, limit int, leaseFor time.Duration, maxAttempts int, now time.Time) ([]model.OutboxEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	until := now.Add(leaseFor)

	const claim = `
		UPDATE outbox_events
		   SET locked_by = ?, locked_until = ?
		 WHERE processed_at IS NULL
		   AND attempts < ?
		   AND next_attempt_at <= ?
		   AND (locked_until IS NULL OR locked_until < ?)
		 ORDER BY created_at ASC
		 LIMIT ?
	`
	res, err := r.db.ExecContext(ctx, claim, workerID, until, maxAttempts, now, now, limit)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}

	var evs []model.OutboxEvent
	err = r.db.SelectContext(ctx, &evs, `
		SELECT `+outboxColumns+`
		  FROM outbox_events
		 WHERE locked_by = ? AND locked_until = ? AND processed_at IS NULL
		 ORDER BY created_at ASC
	`, workerID, until)
	if err != nil {
		return nil, err
	}
	return evs, nil
}

func (r *OutboxRepositoryImpl) MarkProcessed(ctx context.Context, id, workerID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		   SET processed_at = ?,
		       attempts = attempts + 1,
		       locked_by = NULL,
		       locked_until = NULL
		 WHERE id = ? AND locked_by = ? AND processed_at IS NULL
	`, now, id, workerID)
	return err
}

func (r *OutboxRepositoryImpl) MarkFailed(ctx context.Context, id, workerID, lastError string, nextAttemptAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		   SET attempts = attempts + 1,
		       last_error = ?,
		       next_attempt_at = ?,
		       locked_by = NULL,
		       locked_until = NULL
		 WHERE id = ? AND locked_by = ? AND processed_at IS NULL
	`, lastError, nextAttemptAt, id, workerID)
	return err
}

func (r *OutboxRepositoryImpl) ReleaseClaims(ctx context.Context, workerID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		   SET locked_by = NULL, locked_until = NULL
		 WHERE locked_by = ? AND processed_at IS NULL
	`, workerID)
	return err
}

func (r *OutboxRepositoryImpl) DeadLetters(ctx context.Context, maxAttempts, limit int) ([]model.OutboxEvent, error) {
	var evs []model.OutboxEvent
	err := r.db.SelectContext(ctx, &evs, `
		SELECT `+outboxColumns+`
		  FROM outbox_events
		 WHERE processed_at IS NULL AND attempts >= ?
		 ORDER BY created_at ASC
		 LIMIT ?
	`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	return evs, nil
}

func (r *OutboxRepositoryImpl) CountPending(ctx context.Context, maxAttempts int) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM outbox_events
		 WHERE processed_at IS NULL AND attempts < ?
	`, maxAttempts)
	return n, err
}

func (r *OutboxRepositoryImpl) CountDead(ctx context.Context, maxAttempts int) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM outbox_events
		 WHERE processed_at IS NULL AND attempts >= ?
	`, maxAttempts)
	return n, err
}
