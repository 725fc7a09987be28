package rest

import (
	"crypto/rsa"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter returns a configured chi.Router for the admin introspection API.
//
// Route layout:
//
//	GET /healthz            – liveness probe (no authentication required)
//	GET /api/v1/fields      – current value-map contents (JWT required)
//	GET /api/v1/frames      – configured frame schema (JWT required)
//	GET /api/v1/health      – stream failure counter (JWT required)
//
// pubKey is the RSA public key used to verify RS256 Bearer tokens on all
// /api routes. Pass nil to disable JWT validation (useful in tests that
// cover only request parsing / response formatting).
func NewRouter(srv *Server, pubKey *rsa.PublicKey) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", srv.handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		if pubKey != nil {
			r.Use(JWTMiddleware(pubKey))
		}

		r.Get("/fields", srv.handleGetFields)
		r.Get("/frames", srv.handleGetFrames)
		r.Get("/health", srv.handleGetHealth)
	})

	return r
}
