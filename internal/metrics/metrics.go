// Package metrics provides Prometheus metrics for observability.
// Metrics are organized by domain: HTTP requests, CMS fetches, page cache
// and contact form delivery.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "schoolsite"
)

var (
	// HTTP metrics - track request volume and latency
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// CMS metrics - track calls to the content backend
	CMSRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cms",
			Name:      "requests_total",
			Help:      "Total CMS requests by resource and outcome (ok, transport, server, not_found)",
		},
		[]string{"resource", "outcome"},
	)

	CMSRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cms",
			Name:      "request_duration_seconds",
			Help:      "CMS request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"resource"},
	)

	// CollectionSize records how many canonical items the last load produced.
	CollectionSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "items",
			Help:      "Number of canonical items in each collection after the last load",
		},
		[]string{"resource"},
	)

	StaleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer load for the same collection had started",
		},
		[]string{"resource"},
	)

	// Page cache metrics
	PageCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "lookups_total",
			Help:      "Rendered page cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	// Contact form metrics
	ContactMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "messages_total",
			Help:      "Contact form submissions by delivery result (sent, failed, stored)",
		},
		[]string{"result"},
	)

	FormsThrottledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forms",
			Name:      "throttled_total",
			Help:      "Form submissions rejected by the rate limiter, by path",
		},
		[]string{"path"},
	)
)

// ObserveCMSRequest records the outcome and latency of a single CMS call.
func ObserveCMSRequest(resource, outcome string, elapsed time.Duration) {
	CMSRequestsTotal.WithLabelValues(resource, outcome).Inc()
	CMSRequestDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// Timer is a helper for measuring operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the time since the timer was created.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time since the timer was created
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}
