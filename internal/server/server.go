// Package server implements the HTTP server for the application.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/server/handler"
)

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// minShutdownTimeout bounds how long Stop waits for in-flight deliveries.
const minShutdownTimeout = 30 * time.Second

// NewServer creates a new HTTP server that routes webhook deliveries to events.
// Request contexts derive from ctx.
func NewServer(ctx context.Context, cfg *config.Config, events handler.EventRouter, logger *slog.Logger) *Server {
	router := NewRouter(cfg, events, logger)

	return &Server{
		server: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			BaseContext:  func(net.Listener) context.Context { return ctx },
			ReadTimeout:  10 * time.Second,
			WriteTimeout: cfg.GitHub.RequestTimeout + 10*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		// A delivery may spend the whole request timeout talking to GitHub
		// before it queues a completion; Stop waits for it.
		shutdownTimeout: max(minShutdownTimeout, cfg.GitHub.RequestTimeout+10*time.Second),
		logger:          logger,
	}
}

// Start starts the HTTP server and blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, waiting at least 30 seconds and
// never less than a full request timeout for in-flight deliveries.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server", "timeout", s.shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
