package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records inbound requests and webhook results.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	webhooks *prometheus.CounterVec
}

// NewHTTPMetrics registers the inbound metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Inbound HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Inbound HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samcart_webhook_events_total",
		Help: "SamCart webhook events by result.",
	}, []string{"result"})
	reg.MustRegister(requests, latency, webhooks)
	return &HTTPMetrics{
		requests: requests,
		latency:  latency,
		webhooks: webhooks,
	}
}

// ObserveRequest records one served request.
func (h *HTTPMetrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	route = normalizeLabel(route)
	h.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	h.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// IncWebhook counts a webhook by how it was resolved, for example relayed,
// duplicate, unauthorized or delivery_failed.
func (h *HTTPMetrics) IncWebhook(result string) {
	if h == nil || h.webhooks == nil {
		return
	}
	h.webhooks.WithLabelValues(normalizeLabel(result)).Inc()
}
