package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingRecordsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/exclusions", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log output: %v", err)
	}
	if entry["method"] != "POST" || entry["path"] != "/v1/exclusions" {
		t.Errorf("method/path = %v/%v", entry["method"], entry["path"])
	}
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if entry["size"] != float64(len("created")) {
		t.Errorf("size = %v, want %d", entry["size"], len("created"))
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO for a 2xx", entry["level"])
	}
}

func TestLoggingIncludesOperator(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	req = req.WithContext(SetOperatorID(req.Context(), "op-42"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"operator_id":"op-42"`) {
		t.Errorf("log entry missing operator id: %s", buf.String())
	}
}

func TestLoggingErrorLevels(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusBadRequest, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		handler := Logging(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("parsing log output: %v", err)
		}
		if entry["level"] != tt.wantLevel {
			t.Errorf("status %d logged at %v, want %s", tt.status, entry["level"], tt.wantLevel)
		}
	}
}

func TestLoggingErrorCodeViaUpdateResponseContext(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SetErrorCode(r.Context(), "validation_error")
		UpdateResponseContext(w, ctx)
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/locations/search", nil))

	if !strings.Contains(buf.String(), `"error_code":"validation_error"`) {
		t.Errorf("log entry missing error code: %s", buf.String())
	}
}

func TestResponseWriterFirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want first write (404)", rw.statusCode)
	}
}
