package rest

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func generateRouterTestKey(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	return priv, &priv.PublicKey
}

func validBearerToken(t *testing.T, priv *rsa.PrivateKey) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Subject:   "test",
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := tok.SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func TestRouterHealthzNoAuth(t *testing.T) {
	_, pub := generateRouterTestKey(t)
	srv := NewServer(&fakeStore{})
	h := NewRouter(srv, pub)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterAPIRoutesRequireJWT(t *testing.T) {
	_, pub := generateRouterTestKey(t)
	srv := NewServer(&fakeStore{})
	h := NewRouter(srv, pub)

	routes := []string{"/api/v1/fields", "/api/v1/frames", "/api/v1/health"}

	for _, route := range routes {
		req := httptest.NewRequest(http.MethodGet, route, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("route %s: expected 401 without JWT, got %d", route, rec.Code)
		}
	}
}

func TestRouterAPIRoutesAccessibleWithJWT(t *testing.T) {
	priv, pub := generateRouterTestKey(t)
	srv := NewServer(&fakeStore{})
	h := NewRouter(srv, pub)

	bearer := validBearerToken(t, priv)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fields", nil)
	req.Header.Set("Authorization", bearer)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid JWT, got %d; body: %s", rec.Code, rec.Body)
	}
}

func TestRouterNoPublicKeyDisablesAuth(t *testing.T) {
	srv := NewServer(&fakeStore{})
	h := NewRouter(srv, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/frames", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with auth disabled, got %d", rec.Code)
	}
}
