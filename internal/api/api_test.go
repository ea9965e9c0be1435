package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vendhive/locator/internal/auth"
	"github.com/vendhive/locator/internal/exclusion"
	"github.com/vendhive/locator/internal/geocode"
	"github.com/vendhive/locator/internal/health"
	"github.com/vendhive/locator/internal/history"
	"github.com/vendhive/locator/internal/location"
	"github.com/vendhive/locator/internal/middleware"
	"github.com/vendhive/locator/internal/preference"
	"github.com/vendhive/locator/internal/provider"
	"github.com/vendhive/locator/internal/search"
)

type stubGeocoder struct {
	err error
}

func (g *stubGeocoder) Geocode(_ context.Context, _ string) (location.Point, error) {
	if g.err != nil {
		return location.Point{}, g.err
	}
	return location.Point{Lat: 33.749, Lng: -84.388}, nil
}

type stubSource struct {
	candidates []*location.Candidate
}

func (s *stubSource) Name() location.Provider { return location.ProviderPlaces }

func (s *stubSource) Search(_ context.Context, _ provider.Query) (*provider.Result, error) {
	out := make([]*location.Candidate, len(s.candidates))
	for i, c := range s.candidates {
		clone := *c
		out[i] = &clone
	}
	return &provider.Result{Candidates: out}, nil
}

type stubChecker struct{ err error }

func (c stubChecker) HealthCheck(context.Context) error { return c.err }

type testEnv struct {
	router  http.Handler
	jwt     *auth.JWTService
	history *history.InMemoryRepository
	token   string
}

func newTestEnv(t *testing.T, geoErr error, candidates ...*location.Candidate) *testEnv {
	t.Helper()

	prefs := preference.NewInMemoryRepository()
	excls := exclusion.NewInMemoryRepository()
	hist := history.NewInMemoryRepository()

	svc := search.NewService(
		&stubGeocoder{err: geoErr},
		provider.NewFetcher(0, &stubSource{candidates: candidates}),
		nil, prefs, excls, hist, nil,
	)

	jwtSvc := auth.NewJWTService("test-secret")
	token, err := jwtSvc.GenerateToken("op-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	router := NewRouter(RouterConfig{
		Search:         NewSearchHandlers(svc, nil),
		Preferences:    NewPreferenceHandlers(prefs),
		Exclusions:     NewExclusionHandlers(excls),
		History:        NewHistoryHandlers(hist),
		Stats:          NewStatsHandlers(hist, excls),
		Health:         NewHealthHandlers(map[string]health.Checker{"db": stubChecker{}}),
		JWT:            jwtSvc,
		RateLimitStore: middleware.NewInMemoryRateLimitStore(),
	})

	return &testEnv{router: router, jwt: jwtSvc, history: hist, token: token}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, &location.Candidate{
		Source: location.ProviderPlaces, PlaceID: "a", Name: "Corner Cafe",
		Point: location.Point{Lat: 33.75, Lng: -84.39}, Phone: "555-0100",
	})

	rec := env.do(http.MethodPost, "/v1/locations/search", map[string]any{
		"zip_code":     "30301",
		"machine_type": "snack_machine",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[search.Response](t, rec)
	if resp.ResultCount != 1 || resp.Results[0].Name != "Corner Cafe" {
		t.Errorf("response = %+v", resp)
	}
	if resp.SearchID == "" {
		t.Error("search was not recorded to history")
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/v1/locations/search", map[string]any{
		"machine_type": "snack_machine",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	errResp := decodeBody[ErrorResponse](t, rec)
	if errResp.Error.Code != ErrCodeValidation {
		t.Errorf("error code = %q, want %q", errResp.Error.Code, ErrCodeValidation)
	}
}

func TestSearchEndpointInvalidZip(t *testing.T) {
	env := newTestEnv(t, geocode.ErrInvalidZipCode)

	rec := env.do(http.MethodPost, "/v1/locations/search", map[string]any{
		"zip_code":     "99999",
		"machine_type": "snack_machine",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	errResp := decodeBody[ErrorResponse](t, rec)
	if errResp.Error.Code != ErrCodeInvalidZip {
		t.Errorf("error code = %q, want %q", errResp.Error.Code, ErrCodeInvalidZip)
	}
}

func TestSearchEndpointRequiresAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/locations/search", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)

	// Defaults before any save.
	rec := env.do(http.MethodGet, "/v1/preferences", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	pref := decodeBody[preference.Preference](t, rec)
	if pref.Radius != location.DefaultRadius {
		t.Errorf("default radius = %d, want %d", pref.Radius, location.DefaultRadius)
	}

	rec = env.do(http.MethodPut, "/v1/preferences", map[string]any{
		"machine_types":        []string{"drink_machine"},
		"radius":               25,
		"minimum_rating":       3.5,
		"require_contact_info": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/v1/preferences", nil)
	pref = decodeBody[preference.Preference](t, rec)
	if pref.Radius != location.Radius25 || !pref.RequireContactInfo {
		t.Errorf("saved preferences = %+v", pref)
	}
}

func TestPreferencesRejectInvalid(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPut, "/v1/preferences", map[string]any{
		"machine_types": []string{"gumball_tower"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown machine type status = %d, want 400", rec.Code)
	}

	rec = env.do(http.MethodPut, "/v1/preferences", map[string]any{"radius": 13})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid radius status = %d, want 400", rec.Code)
	}

	rec = env.do(http.MethodPut, "/v1/preferences", map[string]any{"minimum_rating": 9})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range rating status = %d, want 400", rec.Code)
	}
}

func TestExclusionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/v1/exclusions", map[string]any{
		"place_id":      "place-a",
		"location_name": "Corner Cafe",
		"reason":        "already_contacted",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[exclusion.Exclusion](t, rec)
	if created.ID == "" {
		t.Fatal("no id assigned")
	}

	rec = env.do(http.MethodGet, "/v1/exclusions", nil)
	list := decodeBody[listResponse](t, rec)
	if list.Count != 1 || list.Exclusions[0].PlaceID != "place-a" {
		t.Errorf("list = %+v", list)
	}

	rec = env.do(http.MethodDelete, "/v1/exclusions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	rec = env.do(http.MethodDelete, "/v1/exclusions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", rec.Code)
	}
}

func TestExclusionRejectsUnknownReason(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/v1/exclusions", map[string]any{
		"place_id": "place-a",
		"reason":   "bad_vibes",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	errResp := decodeBody[ErrorResponse](t, rec)
	if errResp.Error.Code != ErrCodeInvalidReason {
		t.Errorf("error code = %q, want %q", errResp.Error.Code, ErrCodeInvalidReason)
	}
}

func TestExclusionBulkAdd(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(http.MethodPost, "/v1/exclusions", map[string]any{
		"place_id": "dup", "reason": "other",
	})

	rec := env.do(http.MethodPost, "/v1/exclusions/bulk", map[string]any{
		"exclusions": []map[string]any{
			{"place_id": "dup", "reason": "closed"},
			{"place_id": "new-1", "reason": "poor_location"},
			{"place_id": "new-2", "reason": "poor_location"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[bulkExclusionResponse](t, rec)
	if resp.Created != 2 || resp.Updated != 1 {
		t.Errorf("bulk response = %+v, want 2 created 1 updated", resp)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, &location.Candidate{
		Source: location.ProviderPlaces, PlaceID: "a", Name: "Corner Cafe",
		Point: location.Point{Lat: 33.75, Lng: -84.39},
	})

	searchRec := env.do(http.MethodPost, "/v1/locations/search", map[string]any{
		"zip_code":     "30301",
		"machine_type": "snack_machine",
	})
	searchResp := decodeBody[search.Response](t, searchRec)

	rec := env.do(http.MethodGet, "/v1/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	page := decodeBody[historyListResponse](t, rec)
	if page.Total != 1 || len(page.Searches) != 1 {
		t.Fatalf("history page = %+v", page)
	}
	if page.Searches[0].Results != nil {
		t.Error("list leaked stored result payloads")
	}

	rec = env.do(http.MethodGet, "/v1/history/"+searchResp.SearchID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	entry := decodeBody[history.Entry](t, rec)
	if len(entry.Results) != 1 {
		t.Errorf("detail results = %d, want 1", len(entry.Results))
	}

	rec = env.do(http.MethodGet, "/v1/history/missing-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing detail status = %d, want 404", rec.Code)
	}
}

func TestHistoryExportCSV(t *testing.T) {
	env := newTestEnv(t, nil, &location.Candidate{
		Source: location.ProviderPlaces, PlaceID: "a", Name: "Corner Cafe",
		Point: location.Point{Lat: 33.75, Lng: -84.39},
	})

	searchRec := env.do(http.MethodPost, "/v1/locations/search", map[string]any{
		"zip_code":     "30301",
		"machine_type": "snack_machine",
	})
	searchResp := decodeBody[search.Response](t, searchRec)

	rec := env.do(http.MethodGet, "/v1/history/"+searchResp.SearchID+"/export.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "vending_locations_30301.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Corner Cafe") {
		t.Error("CSV body missing the result row")
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, &location.Candidate{
		Source: location.ProviderPlaces, PlaceID: "a", Name: "Corner Cafe",
		Point: location.Point{Lat: 33.75, Lng: -84.39},
	})

	env.do(http.MethodPost, "/v1/locations/search", map[string]any{
		"zip_code": "30301", "machine_type": "snack_machine",
	})
	env.do(http.MethodPost, "/v1/exclusions", map[string]any{
		"place_id": "x", "reason": "other",
	})

	rec := env.do(http.MethodGet, "/v1/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	stats := decodeBody[history.Stats](t, rec)
	if stats.TotalSearches != 1 {
		t.Errorf("TotalSearches = %d, want 1", stats.TotalSearches)
	}
	if stats.ExclusionCount != 1 {
		t.Errorf("ExclusionCount = %d, want 1", stats.ExclusionCount)
	}
	if stats.MostSearchedZip != "30301" {
		t.Errorf("MostSearchedZip = %q", stats.MostSearchedZip)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/ready status = %d", rec.Code)
	}
}

func TestReadinessDegraded(t *testing.T) {
	handlers := NewHealthHandlers(map[string]health.Checker{
		"db":    stubChecker{},
		"redis": stubChecker{err: errors.New("connection refused")},
	})

	rec := httptest.NewRecorder()
	handlers.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeBody[healthResponse](t, rec)
	if resp.Status != "degraded" || resp.Dependencies["db"] != "ok" {
		t.Errorf("response = %+v", resp)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	errResp := decodeBody[ErrorResponse](t, rec)
	if errResp.Error.Code != ErrCodeNotFound {
		t.Errorf("error code = %q", errResp.Error.Code)
	}
}
