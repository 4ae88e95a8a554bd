// Package api exposes the contact directory and the reconciliation engine
// over HTTP. Responses keep the wire vocabulary of the legacy backend:
// Spanish field names and error messages.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/grupo-alfil/crm-backend/internal/config"
	"github.com/grupo-alfil/crm-backend/internal/directorio"
	"github.com/grupo-alfil/crm-backend/internal/match"
)

// ContactDirectory is the directory surface the API serves.
type ContactDirectory interface {
	Create(ctx context.Context, c *directorio.Contact) error
	Update(ctx context.Context, c *directorio.Contact) error
	Get(ctx context.Context, id int64) (*directorio.Contact, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f directorio.Filter) (*directorio.Page, error)
	Search(ctx context.Context, q string) ([]directorio.Contact, error)
	Stats(ctx context.Context) (*directorio.Stats, error)
}

// RelationshipFinder is the read surface of the reconciliation engine.
type RelationshipFinder interface {
	FindRelationships(ctx context.Context) (*match.RelationshipReport, error)
	FindPoliciesForContact(ctx context.Context, id int64) (*match.ContactPolicies, error)
}

// StatusReconciler promotes matched prospects to clients.
type StatusReconciler interface {
	Reconcile(ctx context.Context) (*match.ReconcileResult, error)
}

// Server wires the HTTP routes to the directory and the engine.
type Server struct {
	contacts   ContactDirectory
	finder     RelationshipFinder
	reconciler StatusReconciler
	cfg        config.ServerConfig
}

// NewServer creates a Server.
func NewServer(contacts ContactDirectory, finder RelationshipFinder, reconciler StatusReconciler, cfg config.ServerConfig) *Server {
	return &Server{
		contacts:   contacts,
		finder:     finder,
		reconciler: reconciler,
		cfg:        cfg,
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimitRPS > 0 {
		r.Use(rateLimiter(rate.NewLimiter(rate.Limit(s.cfg.RateLimitRPS), s.cfg.RateLimitBurst)))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/directorio", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/search", s.handleSearch)
		r.Get("/stats", s.handleStats)
		r.Get("/relationships", s.handleRelationships)
		r.Post("/update-client-status", s.handleUpdateClientStatus)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
		r.Get("/{id}/policies", s.handleContactPolicies)
	})

	return r
}
