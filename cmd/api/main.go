// Package main is the entry point for the locator API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vendhive/locator/internal/api"
	"github.com/vendhive/locator/internal/auth"
	"github.com/vendhive/locator/internal/config"
	"github.com/vendhive/locator/internal/db"
	"github.com/vendhive/locator/internal/exclusion"
	"github.com/vendhive/locator/internal/geocode"
	"github.com/vendhive/locator/internal/health"
	"github.com/vendhive/locator/internal/history"
	"github.com/vendhive/locator/internal/middleware"
	"github.com/vendhive/locator/internal/preference"
	"github.com/vendhive/locator/internal/provider"
	"github.com/vendhive/locator/internal/scoring"
	"github.com/vendhive/locator/internal/search"
	"github.com/vendhive/locator/internal/tracing"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (env vars take precedence)")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Locator API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Tracing
	tracer, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "locator-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		Protocol:     cfg.OTLPProtocol,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	// Database
	conn, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Metrics
	metrics := middleware.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// Redis (optional): geocode cache and distributed rate limiting.
	var redisClient *redis.Client
	geocodeCache := geocode.Cache(geocode.NewInMemoryCache())
	rateLimitStore := middleware.RateLimitStore(middleware.NewInMemoryRateLimitStore())
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		geocodeCache = geocode.NewRedisCache(redisClient)
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient, metrics)
		logger.Info("redis enabled for geocode cache and rate limiting")
	}

	// Geocoding
	geocoder := geocode.NewNominatimClient(cfg.NominatimURL, nil, geocodeCache)

	// Location providers. Overpass is always on; the commercial places
	// provider joins when an API key is configured (the URL defaults).
	sources := []provider.Source{
		provider.NewOverpassClient(cfg.OverpassURL, nil),
	}
	if cfg.PlacesAPIKey != "" {
		sources = append(sources, provider.NewPlacesClient(cfg.PlacesURL, cfg.PlacesAPIKey, nil))
	}
	fetcher := provider.NewFetcher(cfg.ProviderTimeout, sources...)
	fetcher.SetObserver(metrics)

	// Scoring weights, optionally recalibrated from file.
	var scorer *scoring.Scorer
	if cfg.ScoringCalibrationPath != "" {
		weights, err := scoring.LoadCalibration(cfg.ScoringCalibrationPath)
		if err != nil {
			return fmt.Errorf("failed to load scoring calibration: %w", err)
		}
		scorer = scoring.NewScorer(weights)
		logger.Info("scoring calibration loaded", "path", cfg.ScoringCalibrationPath)
	}

	// Repositories
	prefRepo := preference.NewPostgresRepository(conn)
	exclRepo := exclusion.NewPostgresRepository(conn)
	histRepo := history.NewPostgresRepository(conn, logger)

	// Search pipeline
	svc := search.NewService(geocoder, fetcher, scorer, prefRepo, exclRepo, histRepo, logger)
	svc.SetMetrics(metrics)

	// Auth
	var jwtService *auth.JWTService
	if cfg.JWTPreviousSecret != "" {
		jwtService = auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)
	} else {
		jwtService = auth.NewJWTService(cfg.JWTSecret)
	}

	// Health checkers
	checkers := map[string]health.Checker{
		"database": health.NewDBChecker(conn),
	}
	if redisClient != nil {
		checkers["redis"] = health.NewRedisChecker(redisClient)
	}

	router := api.NewRouter(api.RouterConfig{
		Search:         api.NewSearchHandlers(svc, metrics),
		Preferences:    api.NewPreferenceHandlers(prefRepo),
		Exclusions:     api.NewExclusionHandlers(exclRepo),
		History:        api.NewHistoryHandlers(histRepo),
		Stats:          api.NewStatsHandlers(histRepo, exclRepo),
		Health:         api.NewHealthHandlers(checkers),
		JWT:            jwtService,
		RateLimitStore: rateLimitStore,
	})

	// Middleware chain, outermost first.
	handler := http.Handler(router)
	handler = middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(), middleware.IPKeyFunc())(handler)
	handler = middleware.HTTPMetrics(metrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing("locator-api")(handler)
	}
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		handler = middleware.CORS(middleware.CORSConfig{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           3600,
		})(handler)
	}
	handler = middleware.RequestID(handler)
	handler = middleware.Profiling(middleware.ProfilingConfig{
		Enabled:     cfg.Env == "development",
		Environment: cfg.Env,
	})(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
