// Package web provides the HTTP server for the catalog batch-import API.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/animelib/catalog/internal/config"
	"github.com/animelib/catalog/internal/core"
	mw "github.com/animelib/catalog/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ImportService is the part of core.Service the handlers use.
type ImportService interface {
	ListKinds() []core.KindInfo
	DefaultConfig() core.ImportConfig
	ImportBatch(ctx context.Context, kind string, records core.Candidates, cfg core.ImportConfig) (*core.ImportReport, error)
	PreviewBatch(ctx context.Context, kind string, records core.Candidates, cfg core.ImportConfig) (*core.PreviewReport, error)
	ListBatches(ctx context.Context, opts core.BatchListOptions) (*core.BatchList, error)
	GetBatch(ctx context.Context, batchID string) (*core.BatchSummary, error)
	GetBatchErrors(ctx context.Context, batchID string, limit, offset int) ([]core.StoredError, error)
	GetAuditLog(ctx context.Context, opts core.AuditLogOptions) ([]core.AuditEntry, error)
	ImportLimiterStatus() core.ImportLimiterStatus
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the import API.
type Server struct {
	service ImportService
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service ImportService, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Reads get the request timeout. Imports run without one: once a batch
	// has started it is processed to the end.
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

		// Pages
		r.Get("/batches/{batchID}", s.handleBatchPage)

		// API reads
		r.Get("/api/kinds", s.handleListKinds)
		r.Get("/api/batches", s.handleListBatches)
		r.Get("/api/batches/{batchID}", s.handleGetBatch)
		r.Get("/api/batches/{batchID}/errors", s.handleBatchErrors)
		r.Get("/api/audit-log", s.handleAuditLog)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))
		if s.cfg.Rate.Enabled {
			r.Use(newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute).middleware)
		}

		r.Post("/api/batch-import/{kind}", s.handleImport)
		r.Post("/api/batch-import/{kind}/preview", s.handlePreview)
		r.Post("/batch/titles", s.handleLegacyTitles)
	})
}

// Start listens on the configured address until Shutdown.
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
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// The batch page is server rendered with inline styles and no scripts.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:")
			}

			next.ServeHTTP(w, r)
		})
	}
}
