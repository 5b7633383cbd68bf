package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exptr_outbox_appended_total",
			Help: "Outbox events written by the appender, by event type",
		},
		[]string{"event_type"},
	)

	EventsDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exptr_outbox_delivered_total",
			Help: "Outbox events delivered to the sink, by event type",
		},
		[]string{"event_type"},
	)

	EventsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exptr_outbox_failed_total",
			Help: "Failed delivery attempts, by event type",
		},
		[]string{"event_type"},
	)

	EventsDeadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exptr_outbox_dead_total",
			Help: "Events moved to the dead state after exhausting retries",
		},
		[]string{"event_type"},
	)

	OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exptr_outbox_pending",
			Help: "Undelivered events still inside the retry budget",
		},
	)

	OutboxDead = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exptr_outbox_dead",
			Help: "Undelivered events past the retry budget, awaiting an operator",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		EventsAppendedTotal,
		EventsDeliveredTotal,
		EventsFailedTotal,
		EventsDeadTotal,
		OutboxPending,
		OutboxDead,
	)
}
