package api

import (
	"net/http"

	"github.com/vendhive/locator/internal/exclusion"
	"github.com/vendhive/locator/internal/history"
	"github.com/vendhive/locator/internal/middleware"
)

// StatsHandlers holds dependencies for the operator stats endpoint.
type StatsHandlers struct {
	history    history.Repository
	exclusions exclusion.Repository
}

// NewStatsHandlers creates a new StatsHandlers instance.
func NewStatsHandlers(hist history.Repository, excls exclusion.Repository) *StatsHandlers {
	return &StatsHandlers{history: hist, exclusions: excls}
}

// Stats handles GET /v1/stats - aggregates the operator's search activity.
func (h *StatsHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		fail(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}
	if r.Method != http.MethodGet {
		fail(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	stats, err := h.history.Stats(r.Context(), operatorID)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to aggregate search stats")
		return
	}

	excluded, err := h.exclusions.PlaceIDs(r.Context(), operatorID)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to count exclusions")
		return
	}
	stats.ExclusionCount = len(excluded)

	writeJSON(w, http.StatusOK, stats)
}
