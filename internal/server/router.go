// Package server exposes the HTTP surface: entity CRUD, scan lifecycle and
// health, on a chi router. Authentication is an external concern reached
// through the Verifier boundary; handlers only ever see a resolved user ID.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"pillarscan/internal/api"

	"github.com/go-chi/chi/v5"
)

// Service is the business logic surface the handlers call. Implemented by
// the orchestrator service; narrowed to an interface so handler tests can
// substitute fakes.
type Service interface {
	CreateUser(ctx context.Context, req *api.CreateUserRequest) (*api.User, error)
	GetUser(ctx context.Context, userID string) (*api.User, error)

	CreateCredential(ctx context.Context, userID string, req *api.CreateCredentialRequest) (*api.Credential, error)
	ListCredentials(ctx context.Context, userID string) ([]*api.Credential, error)
	DeleteCredential(ctx context.Context, userID, credentialID string) error

	CreateScan(ctx context.Context, userID string, req *api.CreateScanRequest) (*api.Scan, error)
	ListScans(ctx context.Context, userID string) ([]*api.Scan, error)
	GetScan(ctx context.Context, userID, scanID string) (*api.Scan, error)
	DeleteScan(ctx context.Context, userID, scanID string) error
}

// Verifier resolves a bearer token to a user ID. Token issuance and identity
// live outside this service.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type Router struct {
	router         *chi.Mux
	svc            Service
	verifier       Verifier
	logger         *slog.Logger
	requestTimeout time.Duration
}

// NewRouter creates a chi router with all routes configured.
func NewRouter(svc Service, verifier Verifier, log *slog.Logger, requestTimeout time.Duration) *Router {
	r := chi.NewRouter()
	router := &Router{
		router:         r,
		svc:            svc,
		verifier:       verifier,
		logger:         log,
		requestTimeout: requestTimeout,
	}

	r.Use(router.requestIDMiddleware)
	r.Use(router.requestTimeoutMiddleware(requestTimeout))
	r.Use(corsMiddleware)
	r.Use(setContentTypeJSONMiddleware)
	r.Use(router.requestLoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", router.handleHealth)
		r.Post("/users", router.handleCreateUser)

		r.Group(func(r chi.Router) {
			r.Use(router.authenticateRequestMiddleware)

			r.Get("/users/me", router.handleGetCurrentUser)

			r.Route("/credentials", func(r chi.Router) {
				r.Post("/", router.handleCreateCredential)
				r.Get("/", router.handleListCredentials)
				r.Delete("/{credentialID}", router.handleDeleteCredential)
			})

			r.Route("/scans", func(r chi.Router) {
				r.Post("/", router.handleCreateScan)
				r.Get("/", router.handleListScans)
				r.Get("/{scanID}", router.handleGetScan)
				r.Delete("/{scanID}", router.handleDeleteScan)
			})
		})
	})

	return router
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Handler returns an http.Handler for the router.
func (r *Router) Handler() http.Handler {
	return r.router
}
