package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vendhive/locator/internal/health"
)

// healthCheckTimeout bounds each dependency probe.
const healthCheckTimeout = 2 * time.Second

// HealthHandlers holds the dependency checkers for the health endpoints.
type HealthHandlers struct {
	checkers map[string]health.Checker
}

// NewHealthHandlers creates health handlers over named dependency checkers.
// Nil checkers are skipped, so callers can pass what they have.
func NewHealthHandlers(checkers map[string]health.Checker) *HealthHandlers {
	filtered := make(map[string]health.Checker, len(checkers))
	for name, c := range checkers {
		if c != nil {
			filtered[name] = c
		}
	}
	return &HealthHandlers{checkers: filtered}
}

// healthResponse is the body of the health endpoints.
type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Liveness handles GET /health - process is up, no dependency probes.
func (h *HealthHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// Readiness handles GET /ready - probes every dependency and returns 503
// when any is unreachable.
func (h *HealthHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	deps := make(map[string]string, len(h.checkers))
	healthy := true
	for name, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			deps[name] = "unreachable: " + err.Error()
			healthy = false
			continue
		}
		deps[name] = "ok"
	}

	status := http.StatusOK
	body := healthResponse{Status: "ready", Dependencies: deps}
	if !healthy {
		status = http.StatusServiceUnavailable
		body.Status = "degraded"
	}
	writeJSON(w, status, body)
}
