package metrics

import "github.com/prometheus/client_golang/prometheus"

// Delivery outcomes recorded by the outbox publisher.
const (
	DeliveryPublished    = "published"
	DeliveryRetry        = "retry"
	DeliveryDeadLettered = "dead_lettered"
)

// OutboxMetrics counts outbox rows by what the publisher did with them.
type OutboxMetrics struct {
	deliveries *prometheus.CounterVec
	batch      prometheus.Histogram
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_deliveries_total",
		Help: "Outbox rows handled by the publisher by event type and outcome.",
	}, []string{"event_type", "outcome"})
	batch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_batch_size",
		Help:    "Rows claimed per non-empty publisher batch.",
		Buckets: []float64{1, 5, 10, 25, 50, 100},
	})
	reg.MustRegister(deliveries, batch)
	return &OutboxMetrics{deliveries: deliveries, batch: batch}
}

func (o *OutboxMetrics) IncDelivery(eventType, outcome string) {
	if o == nil || o.deliveries == nil {
		return
	}
	o.deliveries.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (o *OutboxMetrics) ObserveBatch(size int) {
	if o == nil || o.batch == nil {
		return
	}
	o.batch.Observe(float64(size))
}
