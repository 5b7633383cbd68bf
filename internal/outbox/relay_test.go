package outbox

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mirrors the outbox repository semantics in memory so the relay
// state machine can be driven without a database.
type memStore struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func (s *memStore) add(id, eventType string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, &model.OutboxEvent{
		ID:            id,
		EventType:     eventType,
		Payload:       []byte(`{"user_id":"u1"}`),
		NextAttemptAt: createdAt,
		CreatedAt:     createdAt,
	})
}

func (s *memStore) get(id string) model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return *ev
		}
	}
	return model.OutboxEvent{}
}

func (s *memStore) ClaimBatch(_ context.Context, workerID string, limit int, leaseFor time.Duration, maxAttempts int, now time.Time) ([]model.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until := now.Add(leaseFor)

	eligible := make([]*model.OutboxEvent, 0, len(s.events))
	for _, ev := range s.events {
		if ev.ProcessedAt != nil || ev.Attempts >= maxAttempts {
			continue
		}
		if ev.NextAttemptAt.After(now) {
			continue
		}
		if ev.LockedUntil != nil && ev.LockedUntil.After(now) {
			continue
		}
		eligible = append(eligible, ev)
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	out := make([]model.OutboxEvent, 0, len(eligible))
	for _, ev := range eligible {
		w, u := workerID, until
		ev.LockedBy, ev.LockedUntil = &w, &u
		out = append(out, *ev)
	}
	return out, nil
}

func (s *memStore) MarkProcessed(_ context.Context, id, workerID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.ID == id && ev.LockedBy != nil && *ev.LockedBy == workerID && ev.ProcessedAt == nil {
			ts := now
			ev.ProcessedAt = &ts
			ev.Attempts++
			ev.LockedBy, ev.LockedUntil = nil, nil
		}
	}
	return nil
}

func (s *memStore) MarkFailed(_ context.Context, id, workerID, lastError string, nextAttemptAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.ID == id && ev.LockedBy != nil && *ev.LockedBy == workerID && ev.ProcessedAt == nil {
			msg := lastError
			ev.Attempts++
			ev.LastError = &msg
			ev.NextAttemptAt = nextAttemptAt
			ev.LockedBy, ev.LockedUntil = nil, nil
		}
	}
	return nil
}

func (s *memStore) ReleaseClaims(_ context.Context, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.LockedBy != nil && *ev.LockedBy == workerID && ev.ProcessedAt == nil {
			ev.LockedBy, ev.LockedUntil = nil, nil
		}
	}
	return nil
}

func (s *memStore) DeadLetters(_ context.Context, maxAttempts, limit int) ([]model.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.OutboxEvent
	for _, ev := range s.events {
		if ev.ProcessedAt == nil && ev.Attempts >= maxAttempts && len(out) < limit {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (s *memStore) CountPending(_ context.Context, maxAttempts int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, ev := range s.events {
		if ev.ProcessedAt == nil && ev.Attempts < maxAttempts {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountDead(_ context.Context, maxAttempts int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, ev := range s.events {
		if ev.ProcessedAt == nil && ev.Attempts >= maxAttempts {
			n++
		}
	}
	return n, nil
}

type fakeSink struct {
	mu        sync.Mutex
	failIDs   map[string]bool
	failAll   bool
	delivered []string
}

func (f *fakeSink) Deliver(_ context.Context, ev model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failIDs[ev.ID] {
		return errors.New("sink unavailable")
	}
	f.delivered = append(f.delivered, ev.ID)
	return nil
}

func (f *fakeSink) deliveredIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.delivered...)
}

func newTestRelay(store Store, s Sink, cfg Config) (*Relay, *time.Time) {
	r := NewRelay(store, s, cfg, nil)
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }
	return r, &clock
}

func TestRelayDeliversAndNeverReselects(t *testing.T) {
	store := &memStore{}
	s := &fakeSink{}
	r, clock := newTestRelay(store, s, Config{WorkerID: "w1", MaxAttempts: 3})

	store.add("ev1", "UserRegistered", clock.Add(-time.Second))

	ctx := context.Background()
	r.Cycle(ctx)

	ev := store.get("ev1")
	assert.Equal(t, 1, ev.Attempts)
	require.NotNil(t, ev.ProcessedAt)
	assert.False(t, ev.CreatedAt.After(*ev.ProcessedAt))
	assert.Nil(t, ev.LockedBy)

	// a later cycle must not re-deliver the processed event
	*clock = clock.Add(time.Minute)
	r.Cycle(ctx)
	assert.Equal(t, []string{"ev1"}, s.deliveredIDs())
	assert.Equal(t, 1, store.get("ev1").Attempts)
}

func TestRelayDeadLettersAfterMaxAttempts(t *testing.T) {
	store := &memStore{}
	s := &fakeSink{failAll: true}
	r, clock := newTestRelay(store, s, Config{
		WorkerID:    "w1",
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
	})

	store.add("ev1", "ExpenseCreated", clock.Add(-time.Second))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		r.Cycle(ctx)
		*clock = clock.Add(time.Minute)
	}

	ev := store.get("ev1")
	assert.Equal(t, 3, ev.Attempts, "attempts stop at the retry budget")
	assert.Nil(t, ev.ProcessedAt)
	require.NotNil(t, ev.LastError)
	assert.Equal(t, "sink unavailable", *ev.LastError)

	dead, err := store.DeadLetters(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "ev1", dead[0].ID)
}

func TestRelayIsolatesPerEventFailures(t *testing.T) {
	store := &memStore{}
	s := &fakeSink{failIDs: map[string]bool{"bad": true}}
	r, clock := newTestRelay(store, s, Config{WorkerID: "w1", MaxAttempts: 3})

	store.add("bad", "UserRegistered", clock.Add(-3*time.Second))
	store.add("good", "ExpenseCreated", clock.Add(-2*time.Second))

	r.Cycle(context.Background())

	assert.Equal(t, []string{"good"}, s.deliveredIDs())

	bad := store.get("bad")
	assert.Equal(t, 1, bad.Attempts)
	assert.Nil(t, bad.ProcessedAt)
	require.NotNil(t, bad.LastError)

	good := store.get("good")
	assert.NotNil(t, good.ProcessedAt)
}

func TestRelayDeliversOldestFirst(t *testing.T) {
	store := &memStore{}
	s := &fakeSink{}
	r, clock := newTestRelay(store, s, Config{WorkerID: "w1", MaxAttempts: 3})

	store.add("third", "ExpenseCreated", clock.Add(-time.Second))
	store.add("first", "UserRegistered", clock.Add(-3*time.Second))
	store.add("second", "CategoryCreated", clock.Add(-2*time.Second))

	r.Cycle(context.Background())

	assert.Equal(t, []string{"first", "second", "third"}, s.deliveredIDs())
}

func TestRelayHonorsBackoffGate(t *testing.T) {
	store := &memStore{}
	s := &fakeSink{failAll: true}
	r, clock := newTestRelay(store, s, Config{
		WorkerID:    "w1",
		MaxAttempts: 5,
		BackoffBase: time.Minute,
		BackoffMax:  time.Hour,
	})

	store.add("ev1", "UserRegistered", clock.Add(-time.Second))

	ctx := context.Background()
	r.Cycle(ctx)
	assert.Equal(t, 1, store.get("ev1").Attempts)

	// not yet due: an immediate cycle must not pick it up again
	r.Cycle(ctx)
	assert.Equal(t, 1, store.get("ev1").Attempts)

	// well past the capped delay it becomes eligible again
	*clock = clock.Add(2 * time.Hour)
	r.Cycle(ctx)
	assert.Equal(t, 2, store.get("ev1").Attempts)
}

func TestRelayReleasesLeasesOnShutdown(t *testing.T) {
	store := &memStore{}
	s := &fakeSink{}
	r, clock := newTestRelay(store, s, Config{WorkerID: "w1", MaxAttempts: 3, PollInterval: time.Hour})

	store.add("ev1", "UserRegistered", clock.Add(-time.Second))

	// claim without marking, simulating a worker dying mid-batch
	_, err := store.ClaimBatch(context.Background(), "w1", 10, 30*time.Second, 3, *clock)
	require.NoError(t, err)
	require.NotNil(t, store.get("ev1").LockedBy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = r.Run(ctx)

	assert.Nil(t, store.get("ev1").LockedBy)
	assert.Nil(t, store.get("ev1").LockedUntil)
}

func TestExpiredLeaseIsReclaimed(t *testing.T) {
	store := &memStore{}
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	store.add("ev1", "UserRegistered", clock.Add(-time.Second))

	ctx := context.Background()
	a, err := store.ClaimBatch(ctx, "w1", 10, 30*time.Second, 3, clock)
	require.NoError(t, err)
	require.Len(t, a, 1)

	// w1 dies holding the lease; before expiry the row stays invisible
	b, err := store.ClaimBatch(ctx, "w2", 10, 30*time.Second, 3, clock.Add(10*time.Second))
	require.NoError(t, err)
	assert.Empty(t, b)

	// past locked_until the claim is up for grabs
	later := clock.Add(time.Minute)
	c, err := store.ClaimBatch(ctx, "w2", 10, 30*time.Second, 3, later)
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, "ev1", c[0].ID)
	require.NotNil(t, store.get("ev1").LockedBy)
	assert.Equal(t, "w2", *store.get("ev1").LockedBy)

	// the crashed worker's late ack is ignored once the lease moved
	require.NoError(t, store.MarkProcessed(ctx, "ev1", "w1", later))
	assert.Nil(t, store.get("ev1").ProcessedAt)
	assert.Equal(t, 0, store.get("ev1").Attempts)
}

func TestReclaimBySameWorkerRefreshesLease(t *testing.T) {
	store := &memStore{}
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	store.add("stale", "UserRegistered", clock.Add(-2*time.Second))
	store.add("fresh", "ExpenseCreated", clock.Add(-time.Second))

	ctx := context.Background()
	_, err := store.ClaimBatch(ctx, "w1", 10, 30*time.Second, 3, clock)
	require.NoError(t, err)

	// w1 restarts after its lease expired; the new claim is limited to one
	// row and must not sweep in the second still-stale-leased row
	later := clock.Add(time.Minute)
	batch, err := store.ClaimBatch(ctx, "w1", 1, 30*time.Second, 3, later)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "stale", batch[0].ID, "oldest eligible row wins")
	require.NotNil(t, batch[0].LockedUntil)
	assert.Equal(t, later.Add(30*time.Second), *batch[0].LockedUntil)
}

func TestRelayDeliversEventAbandonedByCrashedWorker(t *testing.T) {
	store := &memStore{}
	s := &fakeSink{}
	r, clock := newTestRelay(store, s, Config{WorkerID: "w2", MaxAttempts: 3})

	store.add("ev1", "UserRegistered", clock.Add(-time.Second))

	// w1 claims and vanishes without marking
	_, err := store.ClaimBatch(context.Background(), "w1", 10, 30*time.Second, 3, *clock)
	require.NoError(t, err)

	*clock = clock.Add(time.Minute)
	r.Cycle(context.Background())

	ev := store.get("ev1")
	require.NotNil(t, ev.ProcessedAt)
	assert.Equal(t, 1, ev.Attempts)
	assert.Equal(t, []string{"ev1"}, s.deliveredIDs())
}

func TestTwoWorkersPartitionThePendingSet(t *testing.T) {
	store := &memStore{}
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	store.add("ev1", "UserRegistered", clock.Add(-2*time.Second))
	store.add("ev2", "ExpenseCreated", clock.Add(-time.Second))

	ctx := context.Background()
	a, err := store.ClaimBatch(ctx, "w1", 1, 30*time.Second, 3, clock)
	require.NoError(t, err)
	b, err := store.ClaimBatch(ctx, "w2", 10, 30*time.Second, 3, clock)
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].ID, b[0].ID, "a live lease is invisible to the second worker")
}
