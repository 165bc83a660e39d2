package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-signing-secret"

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	t.Setenv(envAuthTestMode, "1")
	t.Setenv(envTestJWTSecret, testSecret)
	return NewAuth(nil, "", "")
}

func signedToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestUserIDFromAuthHeader(t *testing.T) {
	a := newTestAuth(t)
	tok := signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}, testSecret)

	userID, err := a.UserIDFromAuthHeader("Bearer " + tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("userID = %q, want user-1", userID)
	}
}

func TestUserIDFromAuthHeaderRejectsExpired(t *testing.T) {
	a := newTestAuth(t)
	tok := signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-2 * time.Hour).Unix(),
	}, testSecret)

	if _, err := a.UserIDFromAuthHeader("Bearer " + tok); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestUserIDFromAuthHeaderRejectsMissingExpiry(t *testing.T) {
	a := newTestAuth(t)
	tok := signedToken(t, jwt.MapClaims{"sub": "user-1"}, testSecret)

	if _, err := a.UserIDFromAuthHeader("Bearer " + tok); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}
}

func TestUserIDFromAuthHeaderRejectsMissingSub(t *testing.T) {
	a := newTestAuth(t)
	tok := signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	if _, err := a.UserIDFromAuthHeader("Bearer " + tok); err == nil {
		t.Fatal("expected token without sub to be rejected")
	}
}

func TestUserIDFromAuthHeaderRejectsWrongSecret(t *testing.T) {
	a := newTestAuth(t)
	tok := signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "other-secret")

	if _, err := a.UserIDFromAuthHeader("Bearer " + tok); err == nil {
		t.Fatal("expected token signed with wrong secret to be rejected")
	}
}

func TestBearerToken(t *testing.T) {
	if _, err := bearerToken(""); err == nil {
		t.Fatal("empty header must be rejected")
	}
	if _, err := bearerToken("Basic abc"); err == nil {
		t.Fatal("non-bearer header must be rejected")
	}
	if _, err := bearerToken("Bearer not-a-jwt"); err == nil {
		t.Fatal("malformed token must be rejected")
	}
	tok, err := bearerToken("Bearer a.b.c")
	if err != nil {
		t.Fatalf("well-formed bearer rejected: %v", err)
	}
	if tok != "a.b.c" {
		t.Fatalf("token = %q, want a.b.c", tok)
	}
}
