package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() model.OutboxEvent {
	agg := "01HZXK3V9T4R8Q2M5N7P1A3C5E"
	return model.OutboxEvent{
		ID:          "01HZXK4A8B7C6D5E4F3G2H1J0K",
		EventType:   model.EventExpenseCreated,
		AggregateID: &agg,
		Payload:     []byte(`{"expense_id":"e1","user_id":"u1","amount_tzs":2500}`),
		CreatedAt:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookSinkDeliver(t *testing.T) {
	var gotBody webhookBody
	var gotIDHeader, gotTypeHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDHeader = r.Header.Get("X-Event-Id")
		gotTypeHeader = r.Header.Get("X-Event-Type")
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, 0, 0, 0)
	ev := sampleEvent()

	require.NoError(t, s.Deliver(context.Background(), ev))

	assert.Equal(t, ev.ID, gotIDHeader)
	assert.Equal(t, model.EventExpenseCreated, gotTypeHeader)
	assert.Equal(t, ev.ID, gotBody.ID)
	assert.Equal(t, ev.EventType, gotBody.EventType)
	require.NotNil(t, gotBody.AggregateID)
	assert.Equal(t, *ev.AggregateID, *gotBody.AggregateID)
	assert.JSONEq(t, string(ev.Payload), string(gotBody.Payload))
}

func TestWebhookSinkNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, 0, 10, 0)

	err := s.Deliver(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestWebhookSinkBreakerOpensAfterThreshold(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, 0, 2, 60000)
	ctx := context.Background()

	require.Error(t, s.Deliver(ctx, sampleEvent()))
	require.Error(t, s.Deliver(ctx, sampleEvent()))

	// breaker is open now: the endpoint must not be hit again
	err := s.Deliver(ctx, sampleEvent())
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestBreakerProbesAndCloses(t *testing.T) {
	b := NewBreaker(2, 10*time.Millisecond)

	assert.True(t, b.TryAcquire())
	b.OnFailure()
	assert.True(t, b.TryAcquire())
	b.OnFailure()

	assert.False(t, b.TryAcquire(), "open after two consecutive failures")

	time.Sleep(20 * time.Millisecond)

	// half-open: exactly one probe goes through
	assert.True(t, b.TryAcquire())
	assert.False(t, b.TryAcquire())

	b.OnSuccess()
	assert.True(t, b.TryAcquire(), "closed again after the probe succeeds")
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond)

	require.True(t, b.TryAcquire())
	b.OnFailure()
	require.False(t, b.TryAcquire())

	time.Sleep(20 * time.Millisecond)

	require.True(t, b.TryAcquire())
	b.OnFailure()

	assert.False(t, b.TryAcquire(), "failed probe snaps the breaker back open")
}
