package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	// Registering twice must fail: duplicate collectors.
	if err := m.Register(reg); err == nil {
		t.Error("second Register() succeeded, want duplicate error")
	}
}

func TestObserveSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	m.ObserveSearch("snack_machine", 12)
	m.ObserveSearch("snack_machine", 3)
	m.ObserveSearch("drink_machine", 0)

	mf := gatherMetric(t, reg, MetricSearchesTotal)
	if mf == nil {
		t.Fatal("searches_total not gathered")
	}
	for _, metric := range mf.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "machine_type" && label.GetValue() == "snack_machine" {
				if got := metric.GetCounter().GetValue(); got != 2 {
					t.Errorf("snack_machine counter = %v, want 2", got)
				}
			}
		}
	}

	hist := gatherMetric(t, reg, MetricSearchResultsReturned)
	if hist == nil {
		t.Fatal("search_results_returned not gathered")
	}
	if got := hist.GetMetric()[0].GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("result histogram sample count = %d, want 3", got)
	}
}

func TestObserveProviderRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	m.ObserveProviderRequest("overpass", "ok", 0.8)
	m.ObserveProviderRequest("overpass", "error", 15.0)
	m.ObserveProviderRequest("places", "ok", 0.2)

	mf := gatherMetric(t, reg, MetricProviderRequestsTotal)
	if mf == nil {
		t.Fatal("provider_requests_total not gathered")
	}
	if len(mf.GetMetric()) != 3 {
		t.Errorf("got %d provider/outcome series, want 3", len(mf.GetMetric()))
	}
}

func TestAddDeduplicatedIgnoresNonPositive(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	m.AddDeduplicated(0)
	m.AddDeduplicated(-3)
	m.AddDeduplicated(4)

	mf := gatherMetric(t, reg, MetricCandidatesDeduplicated)
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 4 {
		t.Errorf("deduplicated counter = %v, want 4", got)
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/history/abc-123", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	mf := gatherMetric(t, reg, MetricHTTPRequestsTotal)
	if mf == nil {
		t.Fatal("http_requests_total not gathered")
	}
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("got %d series, want 1 (health excluded)", len(mf.GetMetric()))
	}
	var path string
	for _, label := range mf.GetMetric()[0].GetLabel() {
		if label.GetName() == "path" {
			path = label.GetValue()
		}
	}
	if path != "/v1/history/{id}" {
		t.Errorf("path label = %q, want normalized /v1/history/{id}", path)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/locations/search", "/v1/locations/search"},
		{"/v1/exclusions", "/v1/exclusions"},
		{"/v1/exclusions/bulk", "/v1/exclusions/bulk"},
		{"/v1/exclusions/3f2a09a8", "/v1/exclusions/{id}"},
		{"/v1/history/3f2a09a8", "/v1/history/{id}"},
		{"/v1/history/3f2a09a8/export.csv", "/v1/history/{id}/export.csv"},
		{"/metrics", "/metrics"},
		{"/unknown/route", "/unknown/route"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
