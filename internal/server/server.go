// Package server implements the difflens HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/dshills/difflens/internal/config"
	"github.com/dshills/difflens/internal/review"
)

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server that reviews diffs with engine.
// Cleartext HTTP/2 is accepted alongside HTTP/1.1.
func NewServer(cfg config.ServerConfig, engine *review.Engine, logger *slog.Logger) (*Server, error) {
	router, err := NewRouter(cfg, engine, logger)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      h2c.NewHandler(router, &http2.Server{}),
			ReadTimeout:  timeout,
			WriteTimeout: timeout + 5*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}, nil
}

// Start starts the HTTP server and blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server with a 30-second timeout.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Run starts the server and stops it when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.Stop(); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return <-errCh
	}
}
