// Package server exposes the generation control surface and the read-only
// post feed over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"postmill/internal/config"
	"postmill/internal/core"
	"postmill/internal/logger"
	"postmill/internal/pipeline"
	"postmill/internal/scheduler"
)

// Generator triggers generation runs.
type Generator interface {
	TryGenerate(ctx context.Context) (*pipeline.Result, error)
	Running() bool
}

// PostReader is the read side of the corpus.
type PostReader interface {
	Posts() []core.Post
	BySlug(slug int) (core.Post, error)
	Get(id string) (core.Post, bool)
	Len() int
	NextSlug() int
	UsedTopics() map[string]bool
	Check() error
}

// JobScheduler controls scheduled jobs.
type JobScheduler interface {
	Start()
	Stop() context.Context
	Running() bool
	List() []scheduler.JobInfo
	Enable(name string) error
	Disable(name string) error
	Run(ctx context.Context, name string) error
}

// requestTimeout bounds the read-only routes.
const requestTimeout = 60 * time.Second

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	corpus     PostReader
	generator  Generator
	scheduler  JobScheduler
	config     config.Server
	log        *slog.Logger
	started    time.Time
}

// New creates a new HTTP server instance
func New(cfg config.Server, corpus PostReader, generator Generator, sched JobScheduler) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		corpus:    corpus,
		generator: generator,
		scheduler: sched,
		config:    cfg,
		log:       logger.Get(),
		started:   time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300, // Maximum value not ignored by any major browsers
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	readTimeout := middleware.Timeout(requestTimeout)
	s.router.With(readTimeout).Get("/health", s.handleHealth)
	s.router.With(readTimeout).Get("/api/status", s.handleStatus)

	s.router.Route("/api", func(r chi.Router) {
		// Read-only feed for the rendering layer
		r.Group(func(r chi.Router) {
			r.Use(readTimeout)
			r.Route("/posts", func(r chi.Router) {
				r.Get("/", s.handleListPosts)
				r.Get("/{slug}", s.handleGetPost)
				r.Get("/{slug}/related", s.handleRelatedPosts)
			})
			r.Get("/clusters", s.handleClusters)
		})

		// Control routes. Runs started here are bounded by the pipeline
		// timeout, not the request.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdminAPI)
			r.Use(noCache)

			r.Post("/generate", s.handleGenerate)
			r.Post("/scheduler/start", s.handleSchedulerStart)
			r.Post("/scheduler/stop", s.handleSchedulerStop)
			r.Get("/jobs", s.handleListJobs)
			r.Post("/jobs/{name}/enable", s.handleEnableJob)
			r.Post("/jobs/{name}/disable", s.handleDisableJob)
			r.Post("/jobs/{name}/run", s.handleRunJob)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
		"admin_auth", s.config.AdminAPIKey != "",
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
