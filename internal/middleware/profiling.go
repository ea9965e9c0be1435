package middleware

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

// ProfilingConfig configures the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether pprof endpoints are exposed. Never enable
	// in production: profiles expose runtime memory contents.
	Enabled bool

	// Environment is used as an extra safety check.
	Environment string
}

// Profiling returns middleware that exposes pprof endpoints at /debug/pprof/*
// when enabled. Requests outside that prefix pass through untouched.
func Profiling(config ProfilingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}

		// Refuse to expose profiles in production regardless of the flag.
		if config.Environment == "production" || config.Environment == "prod" {
			slog.Error("profiling cannot be enabled in production", "environment", config.Environment)
			return next
		}

		slog.Warn("profiling endpoints enabled", "environment", config.Environment)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/debug/pprof") {
				next.ServeHTTP(w, r)
				return
			}

			switch r.URL.Path {
			case "/debug/pprof/cmdline":
				pprof.Cmdline(w, r)
			case "/debug/pprof/profile":
				pprof.Profile(w, r)
			case "/debug/pprof/symbol":
				pprof.Symbol(w, r)
			case "/debug/pprof/trace":
				pprof.Trace(w, r)
			default:
				pprof.Index(w, r)
			}
		})
	}
}
