// Package server provides the HTTP server and routing for the quantum engine.
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

	"github.com/LukhasAI/quantum-engine/internal/database"
	"github.com/LukhasAI/quantum-engine/internal/modules/quantum/handlers"
	"github.com/LukhasAI/quantum-engine/internal/modules/runs"
)

// Config holds server configuration
type Config struct {
	Port    int
	Log     zerolog.Logger
	RunsDB  *database.DB
	Service *runs.Service
	DevMode bool
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	runsDB      *database.DB
	service     *runs.Service
	startupTime time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		runsDB:      cfg.RunsDB,
		service:     cfg.Service,
		startupTime: time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg.Log)

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

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(log zerolog.Logger) {
	// Health check
	s.router.Get("/health", s.handleHealth)

	quantumHandler := handlers.NewHandler(s.service, log)
	runsHandler := runs.NewHandler(s.service, log)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Request/response routes get a deadline long enough for an
		// optimization run to finish. The event stream stays open.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(120 * time.Second))

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.handleSystemStatus)
			})

			quantumHandler.RegisterRoutes(r)
			runsHandler.RegisterRoutes(r)
		})

		// Live run event stream
		r.Get("/runs/ws", s.handleRunFeed)
	})
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
