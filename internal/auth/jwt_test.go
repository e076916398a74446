package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CLillis357/VigilantIE/internal/config"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

func newService(issuer string) *JWTService {
	return NewJWTService(config.AuthConfig{JWTSecret: "test-secret", Issuer: issuer, TokenExpiry: time.Minute})
}

func TestJWTService_RoundTrip(t *testing.T) {
	s := newService("vigilant")

	token, err := s.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.User() != "u1" {
		t.Fatalf("expected subject u1, got %q", claims.User())
	}
}

func TestJWTService_SubjectFallback(t *testing.T) {
	s := newService("")

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "firebase-uid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := s.ValidateToken(raw)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.User() != "firebase-uid" {
		t.Fatalf("expected sub fallback, got %q", claims.User())
	}
}

func TestJWTService_Rejects(t *testing.T) {
	s := newService("vigilant")
	now := time.Now()

	sign := func(method jwt.SigningMethod, key interface{}, c jwt.Claims) string {
		t.Helper()
		raw, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return raw
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), &Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "vigilant"}})},
		{"expired", sign(jwt.SigningMethodHS256, []byte("test-secret"), &Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vigilant",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		}})},
		{"wrong issuer", sign(jwt.SigningMethodHS256, []byte("test-secret"), &Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"}})},
		{"no subject", sign(jwt.SigningMethodHS256, []byte("test-secret"), &Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "vigilant"}})},
		{"hs512", sign(jwt.SigningMethodHS512, []byte("test-secret"), &Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "vigilant"}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.ValidateToken(tt.token); !errors.Is(err, e.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
