package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vendhive/locator/internal/export"
	"github.com/vendhive/locator/internal/history"
	"github.com/vendhive/locator/internal/middleware"
)

// HistoryHandlers holds dependencies for search history HTTP handlers.
type HistoryHandlers struct {
	repo history.Repository
}

// NewHistoryHandlers creates a new HistoryHandlers instance.
func NewHistoryHandlers(repo history.Repository) *HistoryHandlers {
	return &HistoryHandlers{repo: repo}
}

// historyListResponse wraps a page of history entries.
type historyListResponse struct {
	Searches []history.Entry `json:"searches"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// List handles GET /v1/history - a paginated list of past searches.
func (h *HistoryHandlers) List(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		fail(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}
	if r.Method != http.MethodGet {
		fail(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	limit := parseIntParam(r, "limit", history.DefaultPageSize)
	offset := parseIntParam(r, "offset", 0)

	entries, total, err := h.repo.List(r.Context(), operatorID, limit, offset)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to list search history")
		return
	}
	writeJSON(w, http.StatusOK, historyListResponse{
		Searches: entries,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// Detail dispatches GET /v1/history/{id} and GET /v1/history/{id}/export.csv.
func (h *HistoryHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		fail(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}
	if r.Method != http.MethodGet {
		fail(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/history/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		fail(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Search ID is required")
		return
	}
	wantExport := len(parts) == 2 && parts[1] == "export.csv"
	if len(parts) > 2 || (len(parts) == 2 && !wantExport) {
		fail(w, r, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}

	entry, err := h.repo.GetByID(r.Context(), operatorID, id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			fail(w, r, http.StatusNotFound, ErrCodeNotFound, "Search not found")
			return
		}
		fail(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to load search")
		return
	}

	if wantExport {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", export.Filename(entry)))
		if err := export.WriteCSV(w, entry); err != nil {
			// Headers are already sent; log and give up on this response.
			middleware.UpdateResponseContext(w, middleware.SetErrorCode(r.Context(), ErrCodeInternal))
		}
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// parseIntParam reads a non-negative integer query parameter, falling back
// to def when absent or malformed.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
