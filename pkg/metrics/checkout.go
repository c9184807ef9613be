package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout workflow transitions, submissions and invoice dispatches.
type CheckoutMetrics struct {
	transitions *prometheus.CounterVec
	submission  *prometheus.HistogramVec
	dispatch    *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transitions_total",
		Help: "Checkout state transitions by source and target state.",
	}, []string{"from", "to"})
	submission := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_submission_duration_seconds",
		Help:    "Duration of order submission in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	dispatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_dispatch_total",
		Help: "Invoice e-mail dispatch attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(transitions, submission, dispatch)
	return &CheckoutMetrics{
		transitions: transitions,
		submission:  submission,
		dispatch:    dispatch,
	}
}

// ObserveTransition counts one state change.
func (c *CheckoutMetrics) ObserveTransition(from, to string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveSubmission records how long a submission took and whether it succeeded.
func (c *CheckoutMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if c == nil || c.submission == nil {
		return
	}
	c.submission.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncDispatch counts one invoice dispatch attempt.
func (c *CheckoutMetrics) IncDispatch(outcome string) {
	if c == nil || c.dispatch == nil {
		return
	}
	c.dispatch.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
