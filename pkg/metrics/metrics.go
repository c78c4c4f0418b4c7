// Package metrics exposes the Prometheus registry and scrape handler for the
// artworks browser. Metrics are defined in their respective packages (client,
// cache, ratelimit, app) to avoid circular dependencies; this package only
// serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry.
// All metrics are registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the /metrics scrape handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - artic_rate_limit_remaining (Gauge): Requests left in the current window
//   - artic_rate_limit_blocks_total (Counter): Requests refused because the window is spent
//   - artic_rate_limit_throttles_total (Counter): Requests delayed near the end of the budget
//
// Cache Metrics (pkg/cache):
//   - artic_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - artic_cache_misses_total (Counter): Cache misses
//   - artic_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache
//   - artic_304_responses_total (Counter): 304 Not Modified responses
//   - artic_conditional_requests_total (Counter): Requests sent with validators
//   - artic_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - artic_requests_total{endpoint, status} (Counter): Requests by endpoint and status
//   - artic_request_duration_seconds{endpoint} (Histogram): Request duration
//   - artic_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Browser Metrics (internal/app):
//   - artic_selection_operations_total{op} (Counter): Selection transitions by operation
//   - artic_page_fetch_failures_total (Counter): Page loads that kept the previous page
//   - artic_active_sessions (Gauge): Live browser sessions
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(artic_cache_hits_total[5m])) /
//   (sum(rate(artic_cache_hits_total[5m])) + sum(rate(artic_cache_misses_total[5m])))
//
//   # Page Load Failure Rate
//   rate(artic_page_fetch_failures_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(artic_request_duration_seconds_bucket[5m]))
//
//   # Bulk selections per minute
//   rate(artic_selection_operations_total{op="bulk"}[1m]) * 60
