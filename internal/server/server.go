// Package server provides the HTTP server for the tmx API sidecar.
//
// The sidecar runs inside the container next to the Gradio web
// application and exposes a small REST surface for health checking and
// service discovery. It is started by the entrypoint supervisor as the
// secondary process, after the primary application has passed its
// readiness gate.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/taskmatrix/tmx/internal/client"
	"github.com/taskmatrix/tmx/internal/config"
	"github.com/taskmatrix/tmx/internal/logger"
	"github.com/taskmatrix/tmx/internal/server/handlers"
)

// Server is the HTTP server for the API sidecar.
//
// The server is thread-safe and handles concurrent requests through the
// standard library HTTP server with an idle timeout.
type Server struct {
	// cfg holds the port and host configuration.
	cfg *config.Config

	// httpServer is the underlying HTTP server instance.
	httpServer *http.Server

	// gradio is the client used to probe the wrapped Gradio application.
	gradio *client.GradioClient

	// version is the sidecar version string.
	version string
}

// NewServer creates a sidecar server for the given configuration.
//
// The server is ready to start after creation but not yet listening.
// Call Start() to begin accepting requests.
func NewServer(cfg *config.Config, version string) *Server {
	return &Server{
		cfg:     cfg,
		gradio:  client.NewGradioClient(cfg.GradioURL()),
		version: version,
	}
}

// Handler builds the sidecar's HTTP handler with all routes registered.
//
// Routes:
//   - GET  /            - service info and endpoint index
//   - GET  /health      - health check
//   - GET  /info        - deployment details and capabilities
//   - POST /api/message - message endpoint
func (s *Server) Handler() http.Handler {
	h := handlers.NewHandler(s.cfg, s.gradio, s.version)

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Root)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/info", h.Info)
	mux.HandleFunc("/api/message", h.Message)

	return s.loggingMiddleware(mux)
}

// Start starts the HTTP server and blocks until shutdown or fatal error.
//
// Returns:
//   - http.ErrServerClosed after graceful shutdown
//   - error if the server fails to start
func (s *Server) Start() error {
	addr := fmt.Sprintf("0.0.0.0:%d", s.cfg.HTTPPort)
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		IdleTimeout: 120 * time.Second,
	}

	logger.Info("Starting TaskMatrix API server on %s (gradio: %s)", addr, s.cfg.GradioURL())
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server without interrupting active
// connections, bounded by the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware wraps an HTTP handler to log all requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Info("%s %s %s", r.RemoteAddr, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		logger.Debug("Completed in %v", time.Since(start))
	})
}
