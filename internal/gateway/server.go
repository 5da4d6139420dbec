package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"toolgate/pkg/logging"
)

// Server binds the REST and MCP surfaces to one listener with graceful
// shutdown.
type Server struct {
	httpServer *http.Server
}

// NewServer wraps the router in an http.Server on the given port.
func NewServer(port int, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start serves until the listener fails or Shutdown runs. Blocking.
func (s *Server) Start() error {
	logging.Info("Gateway", "HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Gateway", "Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
