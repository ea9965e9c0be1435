package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRateLimitRequests      = "rate_limit_requests_total"
	MetricRateLimitBlocked       = "rate_limit_blocked_total"
	MetricRateLimitRedisErrors   = "rate_limit_redis_errors_total"
	MetricHTTPRequestDuration    = "http_request_duration_seconds"
	MetricHTTPRequestsTotal      = "http_requests_total"
	MetricHTTPResponseSizeBytes  = "http_response_size_bytes"
	MetricSearchesTotal          = "searches_total"
	MetricSearchResultsReturned  = "search_results_returned"
	MetricProviderRequestsTotal  = "provider_requests_total"
	MetricProviderLatencySeconds = "provider_latency_seconds"
	MetricCandidatesDeduplicated = "candidates_deduplicated_total"
	MetricMalformedRecords       = "malformed_records_total"
)

// Metrics contains Prometheus metrics for the HTTP layer and the discovery
// engine. All operations are thread-safe.
type Metrics struct {
	rateLimitRequests    *prometheus.CounterVec
	rateLimitBlocked     *prometheus.CounterVec
	rateLimitRedisErrors prometheus.Counter
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	httpResponseSize     *prometheus.HistogramVec

	searchesTotal        *prometheus.CounterVec
	searchResults        prometheus.Histogram
	providerRequests     *prometheus.CounterVec
	providerLatency      *prometheus.HistogramVec
	candidatesDeduped    prometheus.Counter
	malformedRecords     *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rateLimitRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRateLimitRequests,
				Help: "Total number of rate limit checks by endpoint",
			},
			[]string{"endpoint", "key_type"},
		),
		rateLimitBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRateLimitBlocked,
				Help: "Total number of rate limit violations (blocked requests) by endpoint",
			},
			[]string{"endpoint", "key_type"},
		),
		rateLimitRedisErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRateLimitRedisErrors,
				Help: "Total number of Redis errors during rate limiting (fail-open events)",
			},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 15.0},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPResponseSizeBytes,
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path", "status"},
		),
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSearchesTotal,
				Help: "Total number of location searches by machine type",
			},
			[]string{"machine_type"},
		),
		searchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricSearchResultsReturned,
				Help:    "Distribution of result counts per search",
				Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
			},
		),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricProviderRequestsTotal,
				Help: "Total number of provider requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricProviderLatencySeconds,
				Help:    "Provider request latency in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 15.0},
			},
			[]string{"provider"},
		),
		candidatesDeduped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricCandidatesDeduplicated,
				Help: "Total number of candidates removed by merging or exclusion",
			},
		),
		malformedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricMalformedRecords,
				Help: "Total number of provider records dropped during normalization",
			},
			[]string{"provider"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors, primarily for tests.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rateLimitRequests,
		m.rateLimitBlocked,
		m.rateLimitRedisErrors,
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.httpResponseSize,
		m.searchesTotal,
		m.searchResults,
		m.providerRequests,
		m.providerLatency,
		m.candidatesDeduped,
		m.malformedRecords,
	}
}

// RateLimitRequest increments the rate limit checks counter.
func (m *Metrics) RateLimitRequest(endpoint, keyType string) {
	m.rateLimitRequests.WithLabelValues(endpoint, keyType).Inc()
}

// RateLimitBlocked increments the rate limit blocked counter.
func (m *Metrics) RateLimitBlocked(endpoint, keyType string) {
	m.rateLimitBlocked.WithLabelValues(endpoint, keyType).Inc()
}

// RateLimitRedisError counts a fail-open event when Redis is unavailable.
func (m *Metrics) RateLimitRedisError() {
	m.rateLimitRedisErrors.Inc()
}

// ObserveHTTPRequest records HTTP request metrics.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration float64, responseSize int64) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": status,
	}
	m.httpRequestDuration.With(labels).Observe(duration)
	m.httpRequestsTotal.With(labels).Inc()
	m.httpResponseSize.With(labels).Observe(float64(responseSize))
}

// ObserveSearch records the outcome of one completed search.
func (m *Metrics) ObserveSearch(machineType string, results int) {
	m.searchesTotal.WithLabelValues(machineType).Inc()
	m.searchResults.Observe(float64(results))
}

// ObserveProviderRequest records one provider call. outcome is "ok" or
// "error".
func (m *Metrics) ObserveProviderRequest(provider, outcome string, seconds float64) {
	m.providerRequests.WithLabelValues(provider, outcome).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(seconds)
}

// AddDeduplicated counts candidates removed by merging or exclusion.
func (m *Metrics) AddDeduplicated(n int) {
	if n > 0 {
		m.candidatesDeduped.Add(float64(n))
	}
}

// AddMalformed counts provider records dropped during normalization.
func (m *Metrics) AddMalformed(provider string, n int) {
	if n > 0 {
		m.malformedRecords.WithLabelValues(provider).Add(float64(n))
	}
}
