// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lyle-ventures/fredproxy/internal/api"
	"github.com/lyle-ventures/fredproxy/internal/config"
	"github.com/lyle-ventures/fredproxy/internal/daemon"
	"github.com/lyle-ventures/fredproxy/internal/fred"
	"github.com/lyle-ventures/fredproxy/internal/health"
	xglog "github.com/lyle-ventures/fredproxy/internal/log"
	"github.com/lyle-ventures/fredproxy/internal/telemetry"
	"github.com/lyle-ventures/fredproxy/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the proxy server",
		Long: `Run the proxy server. The FRED API key is read from FRED_API_KEY or
upstream.apiKeyFile. SIGHUP reloads the configuration; SIGINT and SIGTERM
shut the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: serviceName,
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	// Load configuration with precedence: ENV > File > Defaults
	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", configPath).
			Msg("failed to load configuration")
		return fmt.Errorf("load configuration: %w", err)
	}

	// Re-configure logger with loaded configuration
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	if configPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", configPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := health.PerformStartupChecks(ctx, cfg, loader.ResolvePath); err != nil {
		logger.Error().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed")
		return fmt.Errorf("startup checks: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	client := fred.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey,
		fred.WithTimeout(cfg.Upstream.Timeout),
		fred.WithLogger(xglog.WithComponent("fred")),
	)

	holder := config.NewHolder(cfg, loader)

	serverOpts := []api.ServerOption{
		api.WithHealthChecker(health.NewReloadChecker(holder.LastReload)),
	}
	if cfg.Tracing.Enabled {
		serverOpts = append(serverOpts, api.WithTracing(serviceName))
	}
	s, err := api.New(cfg, client, serverOpts...)
	if err != nil {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
		return fmt.Errorf("create API server: %w", err)
	}

	metricsAddr := ""
	if cfg.Metrics.Enabled {
		metricsAddr = cfg.Metrics.ListenAddr
	}

	mgr, err := daemon.NewManager(cfg.Server, daemon.Deps{
		Logger:         logger,
		APIHandler:     s.Handler(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    metricsAddr,
	})
	if err != nil {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
		return fmt.Errorf("create daemon manager: %w", err)
	}
	mgr.RegisterShutdownHook("tracer_provider", tp.Shutdown)

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.Server.ListenAddr).
		Str("upstream", config.MaskURL(cfg.Upstream.BaseURL)).
		Str("cors_mode", cfg.CORS.Mode).
		Int("allowed_origins", len(cfg.CORS.AllowedOrigins)).
		Bool("metrics", cfg.Metrics.Enabled).
		Bool("tracing", cfg.Tracing.Enabled).
		Msg("starting fredproxy")

	// Start daemon app (blocks until shutdown)
	app := daemon.NewApp(logger, mgr, holder, s)
	if err := app.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "manager.failed").
			Msg("daemon app failed")
		return err
	}

	logger.Info().Msg("server exiting")
	return nil
}
