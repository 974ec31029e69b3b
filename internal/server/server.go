// Package server provides the HTTP server and routing for the tracker.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/optracker/internal/domain"
	"github.com/aristath/optracker/internal/modules/backup"
	backuphandlers "github.com/aristath/optracker/internal/modules/backup/handlers"
	positionshandlers "github.com/aristath/optracker/internal/modules/positions/handlers"
	quoteshandlers "github.com/aristath/optracker/internal/modules/quotes/handlers"
	reportshandlers "github.com/aristath/optracker/internal/modules/reports/handlers"
	"github.com/aristath/optracker/internal/store"
)

// Config holds server configuration
type Config struct {
	Log      zerolog.Logger
	Store    *store.Store
	Provider domain.PriceProvider
	Port     int
	DevMode  bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	store          *store.Store
	provider       domain.PriceProvider
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		store:          cfg.Store,
		provider:       cfg.Provider,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Store),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		positionsHandler := positionshandlers.NewHandler(s.store, s.provider, s.log)
		positionsHandler.RegisterRoutes(r)

		quotesHandler := quoteshandlers.NewHandler(s.provider, s.log)
		quotesHandler.RegisterRoutes(r)

		reportsHandler := reportshandlers.NewHandler(s.store, s.log)
		reportsHandler.RegisterRoutes(r)

		backupService := backup.NewService(s.store, s.log)
		backupHandler := backuphandlers.NewHandler(backupService, s.log)
		backupHandler.RegisterRoutes(r)
	})
}

// Router exposes the configured router, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
