package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search session Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghsearch",
			Name:      "search_requests_total",
			Help:      "Search requests by outcome",
		},
		[]string{"outcome"}, // success, error, aborted, suppressed
	)

	GitHubRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghsearch",
			Name:      "github_requests_total",
			Help:      "HTTP requests sent to the GitHub API",
		},
		[]string{"endpoint", "status"},
	)

	GitHubRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ghsearch",
			Name:      "github_request_duration_seconds",
			Help:      "GitHub API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	RateLimitRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ghsearch",
			Name:      "rate_limit_remaining",
			Help:      "Last observed x-ratelimit-remaining of the search endpoint",
		},
	)

	DebounceDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghsearch",
			Name:      "debounce_dropped_total",
			Help:      "Queries dropped by a debounce gate before scheduling",
		},
		[]string{"reason"}, // empty, too_short, too_long
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghsearch",
			Name:      "notifications_total",
			Help:      "Rate limit notifications shown",
		},
		[]string{"kind"}, // warning, exceeded
	)
)

var registerOnce sync.Once

// RegisterSearchMetrics registers the search metrics with the default registry.
// Safe to call more than once.
func RegisterSearchMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			GitHubRequestsTotal,
			GitHubRequestDuration,
			RateLimitRemaining,
			DebounceDroppedTotal,
			NotificationsTotal,
		)
	})
}
