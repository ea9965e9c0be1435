package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendhive/locator/internal/auth"
	"github.com/vendhive/locator/internal/middleware"
)

// RouterConfig carries the handlers and policies the router assembles.
type RouterConfig struct {
	Search      *SearchHandlers
	Preferences *PreferenceHandlers
	Exclusions  *ExclusionHandlers
	History     *HistoryHandlers
	Stats       *StatsHandlers
	Health      *HealthHandlers

	JWT            *auth.JWTService
	RateLimitStore middleware.RateLimitStore
	MetricsHandler http.Handler
}

// NewRouter assembles the full route table. /health, /ready, and /metrics
// are public; everything under /v1 requires a bearer token. The search and
// export endpoints carry their own tighter rate limits on top of the global
// one applied by the caller.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", cfg.Health.Liveness)
	mux.HandleFunc("/ready", cfg.Health.Readiness)
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}
	mux.Handle("/metrics", cfg.MetricsHandler)

	authed := func(h http.HandlerFunc) http.Handler {
		return cfg.JWT.Middleware(h)
	}
	limited := func(limit middleware.RateLimitConfig, h http.HandlerFunc) http.Handler {
		rl := middleware.RateLimiter(cfg.RateLimitStore, limit, middleware.OperatorKeyFunc())
		return cfg.JWT.Middleware(rl(h))
	}

	mux.Handle("/v1/locations/search",
		limited(middleware.DefaultSearchLimit(), cfg.Search.Search))
	mux.Handle("/v1/preferences", authed(cfg.Preferences.Preferences))
	mux.Handle("/v1/exclusions", authed(cfg.Exclusions.Exclusions))
	mux.Handle("/v1/exclusions/bulk", authed(cfg.Exclusions.BulkAdd))
	mux.Handle("/v1/exclusions/", authed(cfg.Exclusions.Delete))
	mux.Handle("/v1/history", authed(cfg.History.List))
	mux.Handle("/v1/history/",
		limited(middleware.DefaultExportLimit(), cfg.History.Detail))
	mux.Handle("/v1/stats", authed(cfg.Stats.Stats))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			fail(w, r, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "locator-api",
			"version": "0.1.0",
		})
	})

	return mux
}
