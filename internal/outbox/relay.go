package outbox

import (
	"context"
	"os"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/metrics"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/util"
	"go.uber.org/zap"
)

// Store is the slice of the outbox repository the relay drives.
type Store interface {
	ClaimBatch(ctx context.Context, workerID string, limit int, leaseFor time.Duration, maxAttempts int, now time.Time) ([]model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id, workerID string, now time.Time) error
	MarkFailed(ctx context.Context, id, workerID, lastError string, nextAttemptAt time.Time) error
	ReleaseClaims(ctx context.Context, workerID string) error
	CountPending(ctx context.Context, maxAttempts int) (int64, error)
	CountDead(ctx context.Context, maxAttempts int) (int64, error)
}

// Sink delivers one stored event to the configured destination.
// Delivery is at-least-once; sinks and their consumers must be idempotent.
type Sink interface {
	Deliver(ctx context.Context, ev model.OutboxEvent) error
}

// Config tunes one relay worker. Zero values fall back to defaults in Run.
type Config struct {
	WorkerID     string
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	Lease        time.Duration
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

// Relay drains pending outbox events: claim a leased batch oldest-first,
// deliver each to the sink, mark success/failure per event. Multiple relays
// may run concurrently; the lease in ClaimBatch partitions the pending set.
type Relay struct {
	store Store
	sink  Sink
	cfg   Config
	log   *zap.Logger

	now func() time.Time // overridable in tests
}

func NewRelay(store Store, sink Sink, cfg Config, log *zap.Logger) *Relay {
	if cfg.WorkerID == "" {
		cfg.WorkerID = defaultWorkerID()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 30 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Relay{
		store: store,
		sink:  sink,
		cfg:   cfg,
		log:   log.With(zap.String("worker_id", cfg.WorkerID)),
		now:   time.Now,
	}
}

// Run polls until ctx is cancelled, then releases any leases still held so
// no event stays claimed by a worker that is gone.
func (r *Relay) Run(ctx context.Context) error {
	r.log.Info("outbox relay started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("batch_size", r.cfg.BatchSize),
		zap.Int("max_attempts", r.cfg.MaxAttempts),
		zap.Duration("lease", r.cfg.Lease),
	)

	tick := time.NewTicker(r.cfg.PollInterval)
	defer tick.Stop()

	r.Cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			r.release()
			r.log.Info("outbox relay stopped")
			return ctx.Err()
		case <-tick.C:
			r.Cycle(ctx)
			r.observe(ctx)
		}
	}
}

// Cycle runs one claim-deliver-mark pass. A single event's failure never
// aborts the rest of the batch.
func (r *Relay) Cycle(ctx context.Context) {
	now := r.now()

	batch, err := r.store.ClaimBatch(ctx, r.cfg.WorkerID, r.cfg.BatchSize, r.cfg.Lease, r.cfg.MaxAttempts, now)
	if err != nil {
		r.log.Error("claim batch failed", zap.Error(err))
		return
	}
	if len(batch) == 0 {
		return
	}

	var delivered, failed int
	for _, ev := range batch {
		if ctx.Err() != nil {
			// shutdown mid-batch: leave the rest leased, release() will free them
			break
		}
		if r.processOne(ctx, ev) {
			delivered++
		} else {
			failed++
		}
	}

	r.log.Info("outbox batch flushed",
		zap.Int("claimed", len(batch)),
		zap.Int("delivered", delivered),
		zap.Int("failed", failed),
	)
}

func (r *Relay) processOne(ctx context.Context, ev model.OutboxEvent) bool {
	if err := r.sink.Deliver(ctx, ev); err != nil {
		metrics.EventsFailedTotal.WithLabelValues(ev.EventType).Inc()

		// ev.Attempts is the pre-increment count; the failure being recorded
		// makes it ev.Attempts+1, which NextDelay uses as the exponent.
		delay := NextDelay(r.cfg.BackoffBase, r.cfg.BackoffMax, ev.Attempts+1)
		nextAt := r.now().Add(delay)

		if merr := r.store.MarkFailed(ctx, ev.ID, r.cfg.WorkerID, err.Error(), nextAt); merr != nil {
			r.log.Error("mark failed errored", zap.String("event_id", ev.ID), zap.Error(merr))
		}

		if ev.Attempts+1 >= r.cfg.MaxAttempts {
			metrics.EventsDeadTotal.WithLabelValues(ev.EventType).Inc()
			r.log.Warn("outbox event dead-lettered",
				zap.String("event_id", ev.ID),
				zap.String("event_type", ev.EventType),
				zap.Int("attempts", ev.Attempts+1),
				zap.String("last_error", err.Error()),
			)
		} else {
			r.log.Warn("outbox delivery failed",
				zap.String("event_id", ev.ID),
				zap.String("event_type", ev.EventType),
				zap.Int("attempts", ev.Attempts+1),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)
		}
		return false
	}

	if err := r.store.MarkProcessed(ctx, ev.ID, r.cfg.WorkerID, r.now()); err != nil {
		r.log.Error("mark processed errored", zap.String("event_id", ev.ID), zap.Error(err))
		return false
	}

	metrics.EventsDeliveredTotal.WithLabelValues(ev.EventType).Inc()

	return true
}

func (r *Relay) observe(ctx context.Context) {
	if pending, err := r.store.CountPending(ctx, r.cfg.MaxAttempts); err == nil {
		metrics.OutboxPending.Set(float64(pending))
	}
	if dead, err := r.store.CountDead(ctx, r.cfg.MaxAttempts); err == nil {
		metrics.OutboxDead.Set(float64(dead))
	}
}

// release frees leases with a fresh context; the run context is already
// cancelled when this is called.
func (r *Relay) release() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.ReleaseClaims(ctx, r.cfg.WorkerID); err != nil {
		r.log.Error("release claims failed", zap.Error(err))
	}
}

// defaultWorkerID makes claims attributable when several relays share a host.
func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "relay"
	}
	return host + "-" + util.New()
}
