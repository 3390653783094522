package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumescan/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down gracefully
func (s *Server) Start(ctx context.Context, om *observability.ObservabilityManager) error {
	httpServer := s.setupHTTPServer(om)

	if s.vaultWatcher != nil {
		if err := s.vaultWatcher.Start(); err != nil {
			return fmt.Errorf("failed to start vault watcher: %w", err)
		}
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// WatchVaultAPIKeys rotates the accepted API keys whenever the Vault secret
// at path gets a new version
func (s *Server) WatchVaultAPIKeys(client VaultSecretReader, path string, interval time.Duration) {
	s.vaultWatcher = NewVaultWatcher(client, path, interval, s.SetAPIKeys, s.Logger)
}

// Handler returns the router wrapped by the observability middleware
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	var handler http.Handler = s.Router()
	if om != nil {
		handler = om.HTTPMiddleware()(handler)
	}
	return handler
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.Host, s.Port),
		Handler:      s.Handler(om),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// displayServerInfo logs the effective server settings at startup
func (s *Server) displayServerInfo() {
	s.Logger.Info("Server configuration",
		"address", net.JoinHostPort(s.Host, s.Port),
		"version", s.Version,
		"api_keys_configured", s.apiKeyCount(),
		"principal_header", s.PrincipalHeader,
		"max_request_size", s.MaxRequestSize,
		"read_timeout", s.ReadTimeout,
		"write_timeout", s.WriteTimeout)

	if s.apiKeyCount() == 0 {
		s.Logger.Warn("No API keys configured, /v1 routes are unauthenticated")
	}
	if s.RateLimiter != nil {
		s.Logger.Info("Rate limiting enabled",
			"requests_per_min", s.RateLimit.RequestsPerMin,
			"burst_capacity", s.RateLimit.BurstCapacity,
			"by_ip", s.RateLimit.ByIP,
			"by_api_key", s.RateLimit.ByAPIKey)
	}
	if s.vaultWatcher != nil {
		s.Logger.Info("Vault API key rotation enabled", "status", s.vaultWatcher.Status())
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.cleanup()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown", "signal", sig.String())
	case <-ctx.Done():
		s.Logger.Info("Context cancelled, starting graceful shutdown")
	}
	return s.performGracefulShutdown(server)
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.cleanup()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanup stops background workers owned by the server
func (s *Server) cleanup() {
	if s.vaultWatcher != nil {
		if err := s.vaultWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop vault watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
