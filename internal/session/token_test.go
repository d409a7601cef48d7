package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token := signToken(t, jwt.RegisteredClaims{Subject: "7", ExpiresAt: jwt.NewNumericDate(exp)})

	got, ok := TokenExpiry(token)
	if !ok || !got.Equal(exp) {
		t.Fatalf("TokenExpiry() = %v, %v, want %v", got, ok, exp)
	}

	if Expired(token, exp.Add(-time.Minute)) {
		t.Fatal("Expired() = true before exp")
	}
	if !Expired(token, exp) {
		t.Fatal("Expired() = false at exp")
	}
}

func TestTokenExpiryOpaqueToken(t *testing.T) {
	for _, token := range []string{"", "opaque-token", signToken(t, jwt.RegisteredClaims{Subject: "1"})} {
		if _, ok := TokenExpiry(token); ok {
			t.Fatalf("TokenExpiry(%q) ok = true, want false", token)
		}
		if Expired(token, time.Now()) {
			t.Fatalf("Expired(%q) = true, want false", token)
		}
	}
}
