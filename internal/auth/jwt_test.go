package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vendhive/locator/internal/middleware"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateToken("op-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "op-1" {
		t.Errorf("Subject = %q, want op-1", claims.Subject)
	}
}

func TestGenerateTokenEmptyOperator(t *testing.T) {
	svc := NewJWTService("test-secret")
	if _, err := svc.GenerateToken(""); !errors.Is(err, ErrEmptyOperatorID) {
		t.Errorf("GenerateToken(\"\") error = %v, want ErrEmptyOperatorID", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateToken("op-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := NewJWTService("secret-b").ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewJWTService("test-secret")
	svc.leeway = 0

	past := time.Now().Add(-2 * time.Hour)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "op-1",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestValidateTokenMissingSubject(t *testing.T) {
	svc := NewJWTService("test-secret")
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenRejectsNoneAlgorithm(t *testing.T) {
	svc := NewJWTService("test-secret")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "op-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestDualKeyRotation(t *testing.T) {
	oldSvc := NewJWTService("old-secret")
	token, err := oldSvc.GenerateToken("op-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	rotated := NewJWTServiceWithRotation("new-secret", "old-secret")
	claims, err := rotated.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() with previous secret error = %v", err)
	}
	if claims.Subject != "op-1" {
		t.Errorf("Subject = %q, want op-1", claims.Subject)
	}

	// New tokens sign with the new secret.
	newToken, err := rotated.GenerateToken("op-2")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := NewJWTService("new-secret").ValidateToken(newToken); err != nil {
		t.Errorf("token from rotated service failed against new secret: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	svc := NewJWTService("test-secret")
	var gotOperator string
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOperator = middleware.GetOperatorID(r.Context())
	}))

	// No token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	// Valid token.
	token, err := svc.GenerateToken("op-7")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", rec.Code)
	}
	if gotOperator != "op-7" {
		t.Errorf("operator in context = %q, want op-7", gotOperator)
	}
}
