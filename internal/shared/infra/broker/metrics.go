package broker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_events_published_total",
			Help: "Total de eventos publicados con confirmación del broker.",
		},
		[]string{"exchange", "routing_key"},
	)
	publishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_publish_failures_total",
			Help: "Total de publicaciones fallidas (broker inaccesible o confirm timeout).",
		},
		[]string{"exchange"},
	)
	deliveriesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_deliveries_total",
			Help: "Entregas procesadas por el consumidor, por resultado (ack, requeue, dead_letter, poison, skipped).",
		},
		[]string{"queue", "outcome"},
	)
)

// RegisterMetrics registra los contadores del broker en el registry global.
// Llamar una sola vez desde main.
func RegisterMetrics() {
	prometheus.MustRegister(eventsPublished, publishFailures, deliveriesProcessed)
}
