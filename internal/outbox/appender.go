package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/metrics"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/util"
	"github.com/jmoiron/sqlx"
)

// Inserter is the slice of the outbox repository the appender needs.
type Inserter interface {
	Insert(ctx context.Context, tx *sqlx.Tx, ev model.OutboxEvent) error
}

// Appender translates a domain occurrence into a stored OutboxEvent inside
// the caller's open transaction. Commit/rollback stays with the caller, so
// the event and the domain write persist or vanish together.
type Appender struct {
	store Inserter
}

func NewAppender(store Inserter) *Appender {
	return &Appender{store: store}
}

// Append marshals payload and inserts the event row through tx. Returns the
// generated event ID. A marshal failure returns before any write, so the
// enclosing transaction aborts with neither the mutation nor the event
// persisted.
func (a *Appender) Append(ctx context.Context, tx *sqlx.Tx, eventType string, aggregateID *string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	ev := model.OutboxEvent{
		ID:          util.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     body,
	}

	if err := a.store.Insert(ctx, tx, ev); err != nil {
		return "", fmt.Errorf("insert outbox event: %w", err)
	}

	metrics.EventsAppendedTotal.WithLabelValues(eventType).Inc()

	return ev.ID, nil
}
