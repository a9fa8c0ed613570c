// Package api exposes the Inkwell services over HTTP as huma operations on
// a chi router.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inkwell/inkwell-server/internal/metrics"
	"github.com/inkwell/inkwell-server/internal/ratelimit"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	AdminEmails    []string
	MaxEPUBBytes   int64

	// Auth endpoints are limited per client address.
	AuthRPS   float64
	AuthBurst int
}

func (o *Options) applyDefaults() {
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	if o.MaxEPUBBytes <= 0 {
		o.MaxEPUBBytes = 50 << 20
	}
	if o.AuthRPS <= 0 {
		o.AuthRPS = 20.0 / 60
	}
	if o.AuthBurst <= 0 {
		o.AuthBurst = 10
	}
	admins := make([]string, 0, len(o.AdminEmails))
	for _, e := range o.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins = append(admins, e)
		}
	}
	o.AdminEmails = admins
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services        *Services
	opts            Options
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates the router, registers every operation and returns a
// ready http.Handler.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	opts.applyDefaults()
	s := &Server{
		services:        services,
		opts:            opts,
		router:          chi.NewRouter(),
		logger:          logger.With("component", "api"),
		authRateLimiter: ratelimit.New(opts.AuthRPS, opts.AuthBurst, 0),
	}

	s.setupMiddleware()

	cfg := huma.DefaultConfig("Inkwell API", "1.0.0")
	cfg.Info.Description = "Novel reading platform"
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, cfg)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// setupMiddleware configures the middleware stack. Request ids and the real
// client address must be set before the logger runs.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))
	s.router.Use(metricsMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(rateLimitPrefix("/api/v1/auth/", s.authRateLimiter, s.logger))
	s.router.Use(authMiddleware(s.services.Auth))
}

func (s *Server) registerRoutes() {
	s.router.Handle("/metrics", metrics.Handler())

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerNovelRoutes()
	s.registerChapterRoutes()
	s.registerRatingRoutes()
	s.registerCommentRoutes()
	s.registerLibraryRoutes()
	s.registerRecommendationRoutes()
	s.registerSearchRoutes()
	s.registerImportRoutes()
	s.registerAdminRoutes()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation and tests.
func (s *Server) API() huma.API { return s.api }

// Shutdown stops background helpers owned by the server.
func (s *Server) Shutdown(_ context.Context) error {
	s.authRateLimiter.Stop()
	return nil
}

// HTTPServer wraps the handler with the configured timeouts.
func (s *Server) HTTPServer(addr string, read, write, idle time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       read,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       idle,
	}
}
