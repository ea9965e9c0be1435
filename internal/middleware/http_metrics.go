package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// normalizePath converts paths with dynamic segments to route patterns to
// prevent cardinality explosion in metrics, mapping
// /v1/exclusions/3f2a... to /v1/exclusions/{id}.
func normalizePath(path string) string {
	staticRoutes := map[string]bool{
		"/":                      true,
		"/v1/locations/search":   true,
		"/v1/preferences":        true,
		"/v1/exclusions":         true,
		"/v1/exclusions/bulk":    true,
		"/v1/history":            true,
		"/v1/stats":              true,
		"/health":                true,
		"/ready":                 true,
		"/metrics":               true,
	}
	if staticRoutes[path] {
		return path
	}

	if strings.HasPrefix(path, "/v1/exclusions/") {
		parts := strings.Split(path, "/")
		if len(parts) == 4 && parts[3] != "" {
			return "/v1/exclusions/{id}"
		}
	}

	if strings.HasPrefix(path, "/v1/history/") {
		parts := strings.Split(path, "/")
		if len(parts) == 5 && parts[4] == "export.csv" {
			return "/v1/history/{id}/export.csv"
		}
		if len(parts) == 4 && parts[3] != "" {
			return "/v1/history/{id}"
		}
	}

	// Unknown routes pass through unchanged so new endpoints still surface.
	return path
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and
// response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// HTTPMetrics is a middleware that records HTTP request metrics. Health
// check endpoints are excluded to avoid noise.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				mrw.size,
			)
		})
	}
}
