package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vendhive/locator/internal/geocode"
	"github.com/vendhive/locator/internal/middleware"
	"github.com/vendhive/locator/internal/search"
)

// SearchHandlers holds dependencies for the search endpoint.
type SearchHandlers struct {
	service *search.Service
	metrics *middleware.Metrics
}

// NewSearchHandlers creates a new SearchHandlers instance. A nil metrics
// disables engine metric recording.
func NewSearchHandlers(service *search.Service, metrics *middleware.Metrics) *SearchHandlers {
	return &SearchHandlers{service: service, metrics: metrics}
}

// Search handles POST /v1/locations/search - runs the discovery pipeline.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		fail(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	req.OperatorID = operatorID

	resp, err := h.service.Search(r.Context(), &req)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveSearch(string(resp.MachineType), resp.ResultCount)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SearchHandlers) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, search.ErrMissingSearchParameter):
		fail(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, search.ErrInvalidRadius):
		fail(w, r, http.StatusBadRequest, ErrCodeInvalidRadius, err.Error())
	case errors.Is(err, search.ErrInvalidMachineType):
		fail(w, r, http.StatusBadRequest, ErrCodeInvalidMachineType, err.Error())
	case errors.Is(err, search.ErrInvalidBuildingType), errors.Is(err, search.ErrInvalidMaxResults):
		fail(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, geocode.ErrInvalidZipCode):
		fail(w, r, http.StatusBadRequest, ErrCodeInvalidZip, "ZIP code is malformed or did not resolve to a US location")
	default:
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Search failed")
	}
}
