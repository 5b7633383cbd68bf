package sink

import (
	"context"

	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/kafka"
	"github.com/IFM-Tech-Connect-Bootcamp/expense-tracker/internal/model"
)

// KafkaSink publishes outbox events to a Kafka topic. Messages are keyed by
// aggregate id so events of one aggregate land on one partition in order.
type KafkaSink struct {
	producer *kafka.Producer
}

func NewKafkaSink(p *kafka.Producer) *KafkaSink {
	return &KafkaSink{producer: p}
}

func (s *KafkaSink) Deliver(ctx context.Context, ev model.OutboxEvent) error {
	key := []byte(ev.ID)
	if ev.AggregateID != nil {
		key = []byte(*ev.AggregateID)
	}

	return s.producer.Publish(ctx, kafka.Message{
		Key:   key,
		Value: ev.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.ID)},
			{Key: "event_type", Value: []byte(ev.EventType)},
		},
	})
}
