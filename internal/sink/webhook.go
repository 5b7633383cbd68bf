package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
)

var ErrBreakerOpen = fmt.Errorf("webhook breaker open")

// webhookBody is the JSON document POSTed to the endpoint.
type webhookBody struct {
	ID          string          `json:"id"`
	EventType   string          `json:"event_type"`
	AggregateID *string         `json:"aggregate_id,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// WebhookSink POSTs outbox events to an HTTP endpoint, guarded by a micro
// circuit breaker so a dead endpoint fails fast instead of eating the batch
// timeout on every event.
type WebhookSink struct {
	url    string
	client *http.Client
	br     *Breaker
}

func NewWebhookSink(url string, timeoutMs, failThreshold, openForMs int) *WebhookSink {
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}
	if failThreshold <= 0 {
		failThreshold = 3
	}
	if openForMs <= 0 {
		openForMs = 15000
	}

	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:     NewBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
	}
}

func (s *WebhookSink) Deliver(ctx context.Context, ev model.OutboxEvent) error {
	if !s.br.TryAcquire() {
		return ErrBreakerOpen
	}

	if err := s.post(ctx, ev); err != nil {
		s.br.OnFailure()
		return err
	}

	s.br.OnSuccess()

	return nil
}

func (s *WebhookSink) post(ctx context.Context, ev model.OutboxEvent) error {
	b, err := json.Marshal(webhookBody{
		ID:          ev.ID,
		EventType:   ev.EventType,
		AggregateID: ev.AggregateID,
		OccurredAt:  ev.CreatedAt,
		Payload:     ev.Payload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Id", ev.ID)
	req.Header.Set("X-Event-Type", ev.EventType)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("webhook %s: status=%d", s.url, res.StatusCode)
	}

	return nil
}
