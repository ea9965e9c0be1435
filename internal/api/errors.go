// Package api provides the HTTP handlers and standardized error handling
// for the location discovery API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vendhive/locator/internal/middleware"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthFailed indicates authentication failure.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = "rate_limited"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeInvalidZip indicates the ZIP code is malformed or unknown.
	ErrCodeInvalidZip = "invalid_zip_code"

	// ErrCodeInvalidMachineType indicates an unknown machine type.
	ErrCodeInvalidMachineType = "invalid_machine_type"

	// ErrCodeInvalidRadius indicates a radius outside the supported bands.
	ErrCodeInvalidRadius = "invalid_radius"

	// ErrCodeInvalidReason indicates an unknown exclusion reason.
	ErrCodeInvalidReason = "invalid_exclusion_reason"
)

// ErrorResponse represents the standard error response format. All API
// errors return JSON in this structure:
// {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response. The error code is
// attached to the request log by the logging middleware when the handler
// passes a context updated with SetErrorCode.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.UpdateResponseContext(w, ctx)

	data, err := json.Marshal(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// fail is shorthand for tagging the context with the error code and writing
// the error response.
func fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	ctx := middleware.SetErrorCode(r.Context(), code)
	WriteError(w, ctx, status, code, message)
}
