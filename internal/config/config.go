// Package config provides configuration loading and validation for the API
// server. It uses koanf to merge environment variables with optional file
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (geocode cache + distributed rate limiting). Optional: when
	// unset, both fall back to in-memory implementations.
	RedisURL string `koanf:"redis_url"`

	// JWT Authentication. JWTPreviousSecret enables zero-downtime rotation.
	JWTSecret         string `koanf:"jwt_secret"`
	JWTPreviousSecret string `koanf:"jwt_previous_secret"`

	// Providers
	OverpassURL     string        `koanf:"overpass_url"`
	PlacesURL       string        `koanf:"places_url"`
	PlacesAPIKey    string        `koanf:"places_api_key"`
	NominatimURL    string        `koanf:"nominatim_url"`
	ProviderTimeout time.Duration `koanf:"provider_timeout"`

	// ScoringCalibrationPath points at an optional JSON file overriding the
	// built-in scoring weights.
	ScoringCalibrationPath string `koanf:"scoring_calibration_path"`

	// CORSAllowedOrigins is a comma-separated list of origins allowed to
	// call the API from a browser. Empty disables CORS handling.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// Tracing
	TracingEnabled bool   `koanf:"tracing_enabled"`
	OTLPEndpoint   string `koanf:"otlp_endpoint"`
	OTLPProtocol   string `koanf:"otlp_protocol"` // "http" or "grpc"
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret    = errors.New("JWT_SECRET is required")
	ErrMissingPlacesAPIKey = errors.New("PLACES_API_KEY is required when places_url is set")
	ErrInvalidPort         = errors.New("PORT must be a valid integer")
	ErrInvalidOTLPProtocol = errors.New("OTLP_PROTOCOL must be \"http\" or \"grpc\"")
)

// Default values for non-secret configuration.
const (
	DefaultPort            = 8080
	DefaultEnv             = "development"
	DefaultOverpassURL     = "https://overpass-api.de/api/interpreter"
	DefaultNominatimURL    = "https://nominatim.openstreetmap.org"
	DefaultProviderTimeout = 15 * time.Second
	DefaultOTLPProtocol    = "http"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if
// valid).
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	timeout := DefaultProviderTimeout
	if k.Exists("provider_timeout") {
		timeout = k.Duration("provider_timeout")
	}
	if val := os.Getenv("PROVIDER_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("PROVIDER_TIMEOUT must be a valid duration: %w", err))
		} else {
			timeout = d
		}
	}

	tracingEnabled := false
	if k.Exists("tracing_enabled") {
		tracingEnabled = k.Bool("tracing_enabled")
	}
	if val := os.Getenv("TRACING_ENABLED"); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			tracingEnabled = true
		case "false", "0", "no", "off":
			tracingEnabled = false
		}
	}

	cfg := &Config{
		Port:                   port,
		Env:                    getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		DatabaseURL:            getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:               getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		JWTSecret:              getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTPreviousSecret:      getEnvOrKoanf("JWT_PREVIOUS_SECRET", k, "jwt_previous_secret"),
		OverpassURL:            getEnvOrDefault("OVERPASS_URL", k.String("overpass_url"), DefaultOverpassURL),
		PlacesURL:              getEnvOrKoanf("PLACES_URL", k, "places_url"),
		PlacesAPIKey:           getEnvOrKoanf("PLACES_API_KEY", k, "places_api_key"),
		NominatimURL:           getEnvOrDefault("NOMINATIM_URL", k.String("nominatim_url"), DefaultNominatimURL),
		ProviderTimeout:        timeout,
		ScoringCalibrationPath: getEnvOrKoanf("SCORING_CALIBRATION_PATH", k, "scoring_calibration_path"),
		CORSAllowedOrigins:     getEnvOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		TracingEnabled:         tracingEnabled,
		OTLPEndpoint:           getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
		OTLPProtocol:           getEnvOrDefault("OTLP_PROTOCOL", k.String("otlp_protocol"), DefaultOTLPProtocol),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise
// the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set,
// otherwise the koanf value, or default. Returns an error if the
// environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidPort)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	// The commercial provider is optional, but a configured endpoint
	// without a key cannot work.
	if c.PlacesURL != "" && c.PlacesAPIKey == "" {
		errs = append(errs, ErrMissingPlacesAPIKey)
	}
	if c.OTLPProtocol != "http" && c.OTLPProtocol != "grpc" {
		errs = append(errs, ErrInvalidOTLPProtocol)
	}

	return errs
}

// AllowedOrigins splits CORSAllowedOrigins into a cleaned slice.
func (c *Config) AllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                     fmt.Sprintf("%d", c.Port),
		"env":                      c.Env,
		"database_url":             maskDatabaseURL(c.DatabaseURL),
		"redis_url":                maskDatabaseURL(c.RedisURL),
		"jwt_secret":               maskSecret(c.JWTSecret),
		"jwt_previous_secret":      maskSecret(c.JWTPreviousSecret),
		"overpass_url":             c.OverpassURL,
		"places_url":               c.PlacesURL,
		"places_api_key":           maskSecret(c.PlacesAPIKey),
		"nominatim_url":            c.NominatimURL,
		"provider_timeout":         c.ProviderTimeout.String(),
		"scoring_calibration_path": c.ScoringCalibrationPath,
		"cors_allowed_origins":     c.CORSAllowedOrigins,
		"tracing_enabled":          fmt.Sprintf("%t", c.TracingEnabled),
		"otlp_endpoint":            c.OTLPEndpoint,
		"otlp_protocol":            c.OTLPProtocol,
	}
}

// maskSecret masks a secret value, showing only the first 4 characters.
// Secrets shorter than 8 characters are fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
