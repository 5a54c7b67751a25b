// Package server provides HTTP server setup and handlers
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"biscuits/internal/config"
	"biscuits/internal/events"
	"biscuits/internal/logger"
	"biscuits/internal/repository"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	repos  *repository.Repositories
	log    *logger.Logger
	events events.Publisher
	router *chi.Mux
	http   *http.Server

	// publishing tracks ad events still being sent to the broker
	publishing sync.WaitGroup
}

// New creates a new server instance. A nil publisher disables tracking events.
func New(cfg *config.Config, repos *repository.Repositories, log *logger.Logger, pub events.Publisher) *Server {
	if pub == nil {
		pub = events.Nop{}
	}
	s := &Server{
		config: cfg,
		repos:  repos,
		log:    log,
		events: pub,
		router: chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Run starts the server and handles graceful shutdown
func (s *Server) Run() error {
	defer s.waitForEvents()

	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info("server starting", "address", s.config.Address(), "debug", s.config.Debug)
		serverErrors <- s.http.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.log.Info("shutting down", "signal", sig.String())

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			s.log.Error("graceful shutdown failed", "error", err)
			if err := s.http.Close(); err != nil {
				return fmt.Errorf("failed to close server: %w", err)
			}
		}

		s.log.Info("server shutdown complete")
	}

	return nil
}

// setupMiddleware configures global middleware
func (s *Server) setupMiddleware() {
	// Real IP detection (important for logging behind proxies)
	s.router.Use(middleware.RealIP)

	// Request ID for tracing
	s.router.Use(middleware.RequestID)

	// Request logging
	s.router.Use(s.loggingMiddleware)

	// Panic recovery
	s.router.Use(middleware.Recoverer)

	// Security headers
	s.router.Use(s.securityHeaders)

	// Response compression (level 5 is a good balance)
	s.router.Use(middleware.Compress(5))

	// Timeout for requests
	s.router.Use(middleware.Timeout(30 * time.Second))
}

// securityHeaders adds security-related headers to all responses
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Permissions Policy (restrict browser features)
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}

// waitForEvents blocks until every ad event queued by a request is published
// or has failed.
func (s *Server) waitForEvents() {
	s.publishing.Wait()
}

// GetRouter returns the chi router (useful for testing)
func (s *Server) GetRouter() *chi.Mux {
	return s.router
}
