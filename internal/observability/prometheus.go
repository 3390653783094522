package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumescan/internal/config"
	"resumescan/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// SetupPrometheusExporter creates an exporter bound to its own registry and
// a mux serving that registry at config.Endpoint
func SetupPrometheusExporter(config PrometheusConfig) (metric.Reader, *http.ServeMux, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return exporter, mux, nil
}

// PrometheusServer serves the metrics endpoint on its own port
type PrometheusServer struct {
	server *http.Server
	logger *errors.Logger
}

// StartPrometheusServer starts a dedicated HTTP server for Prometheus metrics.
// It returns nil when handler is nil.
func StartPrometheusServer(handler http.Handler, port string, logger *errors.Logger) *PrometheusServer {
	if handler == nil {
		return nil
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	ps := &PrometheusServer{
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}

	logger.Info("Starting Prometheus metrics server", "address", ps.server.Addr)
	go func() {
		if err := ps.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "Prometheus server error")
		}
	}()

	return ps
}

// Shutdown stops the metrics server
func (ps *PrometheusServer) Shutdown(ctx context.Context) error {
	if ps == nil {
		return nil
	}
	return ps.server.Shutdown(ctx)
}

// GetPrometheusConfig creates Prometheus configuration from provided config
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg != nil {
		return PrometheusConfig{
			Enabled:  cfg.Observability.Prometheus.Enabled,
			Endpoint: cfg.Observability.Prometheus.Endpoint,
			Port:     cfg.Observability.Prometheus.Port,
		}
	}

	return PrometheusConfig{
		Enabled:  true,
		Endpoint: "/metrics",
		Port:     "9090",
	}
}
