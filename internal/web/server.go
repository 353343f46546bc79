// Package web provides the HTTP server and JSON API for the locality map.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/agingmap/internal/config"
	"github.com/JonMunkholm/agingmap/internal/core"
	"github.com/JonMunkholm/agingmap/internal/web/middleware"
)

// Server is the HTTP server for the locality map API.
type Server struct {
	session *core.Session
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server over session.
func NewServer(session *core.Session, cfg *config.Config) *Server {
	s := &Server{
		session: session,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.APIKeyHeader},
		MaxAge:         86400,
	}))
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.cfg.Rate.RequestsPerMinute))
	}

	s.router.Use(chimiddleware.Compress(5))
	s.router.Use(chimiddleware.Timeout(s.cfg.Server.RequestTimeout))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/assets/config.js", s.handleFrontendConfig)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireLoaded)

			// Records
			r.Get("/records", s.handleListRecords)
			r.Get("/records/{id}", s.handleGetRecord)

			// Pickers and slider bounds
			r.Get("/domain", s.handleDomain)
			r.Get("/jurisdictions", s.handleJurisdictions)
			r.Get("/jurisdictions/{name}/localities", s.handleLocalities)

			// Filtered views
			r.Get("/filter", s.handleFilter)
			r.Get("/aggregate", s.handleAggregate)
			r.Get("/bounds", s.handleBounds)
			r.Get("/export.csv", s.handleExportCSV)

			// Map lookups
			r.Get("/search", s.handleSearch)
			r.Get("/nearest", s.handleNearest)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(&s.cfg.Security))
			if s.cfg.Rate.Enabled {
				r.Use(s.rateLimit(s.cfg.Rate.ReloadLimit))
			}
			r.Post("/reload", s.handleReload)
		})
	})
}

// rateLimit returns a per-IP limiter of requests per minute.
func (s *Server) rateLimit(requests int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
		}),
	)
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// requireLoaded rejects data requests until the first load has succeeded.
func (s *Server) requireLoaded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.session.Loaded() {
			w.Header().Set("Retry-After", "5")
			s.respondError(w, r, core.ErrNotLoaded, http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}
