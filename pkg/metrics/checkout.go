package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records discount evaluations and order finalization.
type CheckoutMetrics struct {
	evaluations *prometheus.CounterVec
	finalized   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_evaluations_total",
		Help: "Discount evaluations by kind and outcome reason.",
	}, []string{"kind", "outcome"})
	finalized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_finalized_total",
		Help: "Order finalization attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_finalize_duration_seconds",
		Help:    "Duration of the order finalization transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(evaluations, finalized, duration)
	return &CheckoutMetrics{
		evaluations: evaluations,
		finalized:   finalized,
		duration:    duration,
	}
}

// ObserveEvaluation counts a discount evaluation. outcome is "applied" or an error reason.
func (c *CheckoutMetrics) ObserveEvaluation(kind, outcome string) {
	if c == nil || c.evaluations == nil {
		return
	}
	c.evaluations.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveFinalize counts a finalization attempt and records its duration.
func (c *CheckoutMetrics) ObserveFinalize(outcome string, duration time.Duration) {
	if c == nil || c.finalized == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.finalized.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
