// Package api provides the HTTP API server and the HTML book table page.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/booktable/internal/booktable"
	"github.com/listenupapp/booktable/internal/loader"
	"github.com/listenupapp/booktable/internal/ratelimit"
	"github.com/listenupapp/booktable/internal/sse"
	"github.com/listenupapp/booktable/internal/validation"
)

// CatalogLoader reloads the book list from its source.
type CatalogLoader interface {
	Load(ctx context.Context) error
	Status() loader.Status
}

// Services holds the collaborators used by the handlers.
type Services struct {
	Controller *booktable.Controller
	Catalog    CatalogLoader
	// Events is optional; without it the stream route and live page reloads are off.
	Events *sse.Manager
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	controller *booktable.Controller
	catalog    CatalogLoader
	events     *sse.Manager
	limiter    *ratelimit.KeyedRateLimiter
	validator  *validation.Validator
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// A nil limiter disables rate limiting.
func NewServer(services *Services, corsOrigins []string, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		controller: services.Controller,
		catalog:    services.Catalog,
		events:     services.Events,
		limiter:    limiter,
		validator:  validation.New(),
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware(corsOrigins)

	humaConfig := huma.DefaultConfig("Book Table API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(corsOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()

	if s.events != nil {
		s.router.Get("/api/v1/events", sse.NewHandler(s.events, s.logger).ServeHTTP)
	}
	s.router.Get("/", s.handleIndex)
	s.router.With(http.NewCrossOriginProtection().Handler).Post("/sort", s.handleSort)
}
