package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/config"
)

// Server wraps the HTTP server with its configuration
type Server struct {
	httpServer *http.Server
	config     *config.Config
}

// NewServer creates a new configured HTTP server instance
func NewServer(cfg *config.Config, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: handler,
		// Model streams stay open for minutes; short timeouts would
		// cut them mid-answer.
		ReadTimeout:  300 * time.Second,
		WriteTimeout: 300 * time.Second,
	}

	return &Server{
		httpServer: srv,
		config:     cfg,
	}
}

// Start begins listening and serving HTTP requests. It returns nil after
// a clean Shutdown.
func (s *Server) Start() error {
	log.Printf("Bestluck server starting on http://localhost%s", s.config.ServerPort)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight
// requests (including open chat streams) until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
