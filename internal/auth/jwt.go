// Package auth provides bearer token validation for the API. The token
// subject identifies the operator; every stored resource is scoped to it.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vendhive/locator/internal/middleware"
)

// AccessTokenExpiry is how long issued tokens stay valid.
const AccessTokenExpiry = 24 * time.Hour

// DefaultLeeway absorbs clock skew during token validation.
const DefaultLeeway = 30 * time.Second

// ErrInvalidToken is returned when token validation fails.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned when the token has expired.
var ErrExpiredToken = errors.New("token has expired")

// ErrEmptyOperatorID is returned when the operator id is empty.
var ErrEmptyOperatorID = errors.New("operator id cannot be empty")

// Claims are the JWT claims carried by API tokens. Subject is the operator
// id.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService signs and validates operator tokens. Supports dual-key
// rotation: tokens are signed with currentSecret but validate against either
// currentSecret or previousSecret.
type JWTService struct {
	currentSecret  []byte
	previousSecret []byte
	leeway         time.Duration
}

// NewJWTService creates a JWTService with a single signing secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		currentSecret: []byte(secret),
		leeway:        DefaultLeeway,
	}
}

// NewJWTServiceWithRotation creates a JWTService with dual-key support for
// zero-downtime secret rotation. Pass an empty previousSecret when no
// rotation is in progress.
func NewJWTServiceWithRotation(currentSecret, previousSecret string) *JWTService {
	svc := &JWTService{
		currentSecret: []byte(currentSecret),
		leeway:        DefaultLeeway,
	}
	if previousSecret != "" {
		svc.previousSecret = []byte(previousSecret)
	}
	return svc
}

// GenerateToken creates a signed token for an operator.
func (s *JWTService) GenerateToken(operatorID string) (string, error) {
	if operatorID == "" {
		return "", ErrEmptyOperatorID
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.currentSecret)
}

// ValidateToken parses and validates a token, returning the claims if
// valid. Tries currentSecret first, then previousSecret if set.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parseWith(tokenString, s.currentSecret)
	if err == nil {
		return claims, nil
	}

	if s.previousSecret != nil {
		if claims, prevErr := s.parseWith(tokenString, s.previousSecret); prevErr == nil {
			return claims, nil
		}
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	return nil, ErrInvalidToken
}

func (s *JWTService) parseWith(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithLeeway(s.leeway))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware validates the Authorization bearer token and stores the
// operator id in the request context. Requests without a valid token get a
// 401.
func (s *JWTService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims, err := s.ValidateToken(strings.TrimPrefix(header, prefix))
		if err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		ctx := middleware.SetOperatorID(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
