package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DeliveryMetrics records outbound order delivery to UTMify.
type DeliveryMetrics struct {
	attempts *prometheus.CounterVec
	results  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	backoff  prometheus.Histogram
}

// NewDeliveryMetrics registers the delivery metrics on the provided registerer.
// A nil registerer yields a collector whose methods are no-ops.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "utmify_delivery_attempts_total",
		Help: "HTTP attempts made against the UTMify orders endpoint.",
	}, []string{"outcome"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "utmify_deliveries_total",
		Help: "Terminal delivery outcomes per order.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "utmify_delivery_duration_seconds",
		Help:    "Wall time of a delivery including retries.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"outcome"})
	backoff := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "utmify_delivery_backoff_seconds",
		Help:    "Delays scheduled between delivery attempts.",
		Buckets: []float64{.5, 1, 2, 4, 8, 16, 30},
	})
	reg.MustRegister(attempts, results, duration, backoff)
	return &DeliveryMetrics{
		attempts: attempts,
		results:  results,
		duration: duration,
		backoff:  backoff,
	}
}

// IncAttempt counts a single HTTP attempt by its classification.
func (d *DeliveryMetrics) IncAttempt(outcome string) {
	if d == nil || d.attempts == nil {
		return
	}
	d.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveResult records the terminal outcome and total duration of a delivery.
func (d *DeliveryMetrics) ObserveResult(outcome string, elapsed time.Duration) {
	if d == nil || d.results == nil {
		return
	}
	label := normalizeLabel(outcome)
	d.results.WithLabelValues(label).Inc()
	d.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// ObserveBackoff records a scheduled retry delay.
func (d *DeliveryMetrics) ObserveBackoff(delay time.Duration) {
	if d == nil || d.backoff == nil {
		return
	}
	d.backoff.Observe(delay.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
