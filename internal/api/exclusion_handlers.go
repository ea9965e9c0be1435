package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vendhive/locator/internal/exclusion"
	"github.com/vendhive/locator/internal/location"
	"github.com/vendhive/locator/internal/middleware"
)

// MaxBulkExclusions bounds a single bulk add request.
const MaxBulkExclusions = 200

// ExclusionHandlers holds dependencies for exclusion HTTP handlers.
type ExclusionHandlers struct {
	repo exclusion.Repository
}

// NewExclusionHandlers creates a new ExclusionHandlers instance.
func NewExclusionHandlers(repo exclusion.Repository) *ExclusionHandlers {
	return &ExclusionHandlers{repo: repo}
}

// exclusionRequest is the request body for adding one exclusion.
type exclusionRequest struct {
	PlaceID      string `json:"place_id"`
	LocationName string `json:"location_name"`
	Reason       string `json:"reason"`
	Notes        string `json:"notes"`
}

// bulkExclusionRequest is the request body for POST /v1/exclusions/bulk.
type bulkExclusionRequest struct {
	Exclusions []exclusionRequest `json:"exclusions"`
}

// bulkExclusionResponse reports the outcome of a bulk add.
type bulkExclusionResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// listResponse wraps the exclusion list.
type listResponse struct {
	Exclusions []exclusion.Exclusion `json:"exclusions"`
	Count      int                   `json:"count"`
}

// Exclusions dispatches GET and POST /v1/exclusions.
func (h *ExclusionHandlers) Exclusions(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		fail(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, operatorID)
	case http.MethodPost:
		h.add(w, r, operatorID)
	default:
		fail(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

// BulkAdd handles POST /v1/exclusions/bulk.
func (h *ExclusionHandlers) BulkAdd(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		fail(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}
	if r.Method != http.MethodPost {
		fail(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req bulkExclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if len(req.Exclusions) == 0 {
		fail(w, r, http.StatusBadRequest, ErrCodeValidation, "exclusions must not be empty")
		return
	}
	if len(req.Exclusions) > MaxBulkExclusions {
		fail(w, r, http.StatusBadRequest, ErrCodeValidation, "Too many exclusions in one request")
		return
	}

	excls := make([]exclusion.Exclusion, 0, len(req.Exclusions))
	for _, item := range req.Exclusions {
		excl, code, msg := buildExclusion(operatorID, item)
		if code != "" {
			fail(w, r, http.StatusBadRequest, code, msg)
			return
		}
		excls = append(excls, *excl)
	}

	created, err := h.repo.BulkAdd(r.Context(), excls)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to save exclusions")
		return
	}
	writeJSON(w, http.StatusOK, bulkExclusionResponse{
		Created: created,
		Updated: len(excls) - created,
	})
}

// Delete handles DELETE /v1/exclusions/{id}.
func (h *ExclusionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		fail(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}
	if r.Method != http.MethodDelete {
		fail(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/exclusions/")
	if id == "" || strings.Contains(id, "/") {
		fail(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Exclusion ID is required")
		return
	}

	if err := h.repo.Delete(r.Context(), operatorID, id); err != nil {
		if errors.Is(err, exclusion.ErrNotFound) {
			fail(w, r, http.StatusNotFound, ErrCodeNotFound, "Exclusion not found")
			return
		}
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to delete exclusion")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ExclusionHandlers) list(w http.ResponseWriter, r *http.Request, operatorID string) {
	excls, err := h.repo.List(r.Context(), operatorID)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to list exclusions")
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Exclusions: excls, Count: len(excls)})
}

func (h *ExclusionHandlers) add(w http.ResponseWriter, r *http.Request, operatorID string) {
	var req exclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	excl, code, msg := buildExclusion(operatorID, req)
	if code != "" {
		fail(w, r, http.StatusBadRequest, code, msg)
		return
	}

	stored, err := h.repo.Add(r.Context(), excl)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to save exclusion")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// buildExclusion validates one exclusion request item. On failure it returns
// an empty exclusion plus an error code and message.
func buildExclusion(operatorID string, req exclusionRequest) (*exclusion.Exclusion, string, string) {
	if strings.TrimSpace(req.PlaceID) == "" {
		return nil, ErrCodeValidation, "place_id is required"
	}
	reason, err := location.ParseExclusionReason(req.Reason)
	if err != nil {
		return nil, ErrCodeInvalidReason, "Unknown exclusion reason: " + req.Reason
	}
	return &exclusion.Exclusion{
		OperatorID:   operatorID,
		PlaceID:      strings.TrimSpace(req.PlaceID),
		LocationName: req.LocationName,
		Reason:       reason,
		Notes:        req.Notes,
	}, "", ""
}
