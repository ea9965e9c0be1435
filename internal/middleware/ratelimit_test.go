package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  RateLimitConfig
		wantErr bool
	}{
		{"valid", RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute}, false},
		{"zero requests", RateLimitConfig{RequestsPerWindow: 0, WindowDuration: time.Minute}, true},
		{"zero window", RateLimitConfig{RequestsPerWindow: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInMemoryStoreAllowsUpToLimit(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if allowed, _ := store.Allow(ctx, "k", config); !allowed {
			t.Fatalf("request %d blocked below the limit", i+1)
		}
	}

	allowed, retryAfter := store.Allow(ctx, "k", config)
	if allowed {
		t.Error("request above the limit was allowed")
	}
	if retryAfter <= 0 || retryAfter > 60 {
		t.Errorf("retryAfter = %d, want within the window", retryAfter)
	}
}

func TestInMemoryStoreIsolatesKeys(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	ctx := context.Background()

	store.Allow(ctx, "a", config)
	if allowed, _ := store.Allow(ctx, "b", config); !allowed {
		t.Error("limit on one key leaked into another")
	}
}

func TestInMemoryStoreWindowReset(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 10 * time.Millisecond}
	ctx := context.Background()

	store.Allow(ctx, "k", config)
	if allowed, _ := store.Allow(ctx, "k", config); allowed {
		t.Fatal("second request in window was allowed")
	}

	time.Sleep(15 * time.Millisecond)
	if allowed, _ := store.Allow(ctx, "k", config); !allowed {
		t.Error("request after window expiry was blocked")
	}
}

func TestInMemoryStoreCleanup(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Millisecond}
	store.Allow(context.Background(), "stale", config)

	time.Sleep(5 * time.Millisecond)
	store.Cleanup()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.buckets) != 0 {
		t.Errorf("Cleanup() left %d buckets", len(store.buckets))
	}
}

func TestIPKeyFunc(t *testing.T) {
	keyFunc := IPKeyFunc()

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{
			name:  "remote addr with port",
			setup: func(r *http.Request) { r.RemoteAddr = "203.0.113.9:4321" },
			want:  "203.0.113.9",
		},
		{
			name:  "x-forwarded-for single",
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-For", "198.51.100.1") },
			want:  "198.51.100.1",
		},
		{
			name:  "x-forwarded-for chain uses first hop",
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1") },
			want:  "198.51.100.1",
		},
		{
			name:  "x-real-ip",
			setup: func(r *http.Request) { r.Header.Set("X-Real-IP", "192.0.2.7") },
			want:  "192.0.2.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			if got := keyFunc(r); got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOperatorKeyFunc(t *testing.T) {
	keyFunc := OperatorKeyFunc()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:4321"
	if got := keyFunc(r); got != "ip:203.0.113.9" {
		t.Errorf("anonymous key = %q, want ip fallback", got)
	}

	r = r.WithContext(SetOperatorID(r.Context(), "op-1"))
	if got := keyFunc(r); got != "operator:op-1" {
		t.Errorf("authenticated key = %q, want operator:op-1", got)
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}
	handler := RateLimiter(store, config, IPKeyFunc())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("429 response missing X-RateLimit-Reset header")
	}
}
