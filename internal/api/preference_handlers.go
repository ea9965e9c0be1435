package api

import (
	"encoding/json"
	"net/http"

	"github.com/vendhive/locator/internal/location"
	"github.com/vendhive/locator/internal/middleware"
	"github.com/vendhive/locator/internal/preference"
)

// PreferenceHandlers holds dependencies for preference HTTP handlers.
type PreferenceHandlers struct {
	repo preference.Repository
}

// NewPreferenceHandlers creates a new PreferenceHandlers instance.
func NewPreferenceHandlers(repo preference.Repository) *PreferenceHandlers {
	return &PreferenceHandlers{repo: repo}
}

// Preferences dispatches GET and PUT /v1/preferences.
func (h *PreferenceHandlers) Preferences(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		fail(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, operatorID)
	case http.MethodPut:
		h.put(w, r, operatorID)
	default:
		fail(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

// get returns the operator's saved preferences, or the defaults when none
// are stored.
func (h *PreferenceHandlers) get(w http.ResponseWriter, r *http.Request, operatorID string) {
	pref, err := preference.GetOrDefaults(r.Context(), h.repo, operatorID)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load preferences")
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

func (h *PreferenceHandlers) put(w http.ResponseWriter, r *http.Request, operatorID string) {
	var pref preference.Preference
	if err := json.NewDecoder(r.Body).Decode(&pref); err != nil {
		fail(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	pref.OperatorID = operatorID

	for _, mt := range pref.MachineTypes {
		if !mt.Valid() {
			fail(w, r, http.StatusBadRequest, ErrCodeInvalidMachineType, "Unknown machine type: "+string(mt))
			return
		}
	}
	if pref.Radius == 0 {
		pref.Radius = location.DefaultRadius
	}
	if !pref.Radius.Valid() {
		fail(w, r, http.StatusBadRequest, ErrCodeInvalidRadius, "Radius must be one of the supported bands")
		return
	}
	for _, bt := range pref.BuildingTypes {
		if !location.KnownBuildingType(string(bt)) {
			fail(w, r, http.StatusBadRequest, ErrCodeValidation, "Unknown building type: "+string(bt))
			return
		}
	}
	if pref.MinimumRating < 0 || pref.MinimumRating > 5 {
		fail(w, r, http.StatusBadRequest, ErrCodeValidation, "minimum_rating must be between 0 and 5")
		return
	}

	if err := h.repo.Upsert(r.Context(), &pref); err != nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to save preferences")
		return
	}

	stored, err := h.repo.Get(r.Context(), operatorID)
	if err != nil || stored == nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to read saved preferences")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
