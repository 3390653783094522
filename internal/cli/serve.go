package cli

import (
	"context"
	"time"

	"resumescan/internal/config"
	"resumescan/internal/observability"
	"resumescan/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing analysis, judging and suggestion review.

Available endpoints:
- POST  /v1/analyze: analyze a resume against a job posting
- POST  /v1/judge: score a single suggestion
- POST  /v1/diff: word-level diff of two texts
- GET   /v1/scans/{scanID}/suggestions/summary: suggestion counts by status
- PATCH /v1/scans/{scanID}/suggestions/{suggestionID}: accept or reject a suggestion
- POST  /v1/scans/{scanID}/sections/{section}/accept-all|reject-all: bulk review
- POST  /v1/scans/{scanID}/skip-pending: reject every pending suggestion
- POST  /v1/scans/{scanID}/merge: apply accepted suggestions to the resume
- GET   /v1/quality/health: judge quality over recent analyses
- GET   /health: health check endpoint
- GET   /stats: server statistics and rate limiting info`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}

	app, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	var prom *observability.PrometheusServer
	if pc := observability.GetPrometheusConfig(cfg); cfg.Observability.Enabled && pc.Enabled {
		prom = observability.StartPrometheusServer(app.obs.PrometheusHandler(), pc.Port, logger)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := prom.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shutdown Prometheus server")
		}
	}()

	srv := server.NewServer(cfg, Version, server.Dependencies{
		Analyzer:  app.pipeline,
		Judge:     app.judge,
		Lifecycle: app.lifecycle,
		Scans:     app.store,
		AIHealth:  app.services,
		RateLimit: app.obs.Metrics(),
		Variants:  app.variants,
	}, logger)

	if err := watchAPIKeys(srv, cfg); err != nil {
		logger.LogError(err, "Vault API key rotation disabled")
	}

	return srv.Start(ctx, app.obs)
}

// watchAPIKeys enables API key rotation when Vault and a watch interval are configured
func watchAPIKeys(srv *server.Server, cfg *config.Config) error {
	if !cfg.Vault.Enabled || cfg.Vault.WatchInterval <= 0 || cfg.Vault.Secrets.APIKeys == "" {
		return nil
	}
	client, err := config.NewVaultClient(cfg.Vault, srv.Logger)
	if err != nil {
		return err
	}
	srv.WatchVaultAPIKeys(client, cfg.Vault.Secrets.APIKeys, cfg.Vault.WatchInterval)
	return nil
}
