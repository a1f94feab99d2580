// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api assembles the HTTP surface of fredproxy: health probes, the
// OpenAPI document and the catch-all FRED proxy behind one chi router.
package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lyle-ventures/fredproxy/internal/config"
	"github.com/lyle-ventures/fredproxy/internal/health"
	xglog "github.com/lyle-ventures/fredproxy/internal/log"
	"github.com/lyle-ventures/fredproxy/internal/proxy"
)

// Server represents the HTTP API server for fredproxy.
type Server struct {
	mu            sync.RWMutex
	cfg           config.AppConfig
	proxy         *proxy.Handler
	healthManager *health.Manager
	logger        zerolog.Logger
	handler       http.Handler

	tracingService string
	checkers       []health.Checker
}

// ServerOption allows functional configuration of the Server.
type ServerOption func(*Server)

// WithHealthChecker registers an additional readiness checker.
func WithHealthChecker(c health.Checker) ServerOption {
	return func(s *Server) {
		s.checkers = append(s.checkers, c)
	}
}

// WithTracing enables the OpenTelemetry server middleware under the given
// service name.
func WithTracing(serviceName string) ServerOption {
	return func(s *Server) {
		s.tracingService = serviceName
	}
}

// New creates the HTTP API server. upstream serves every proxied request.
func New(cfg config.AppConfig, upstream proxy.Upstream, opts ...ServerOption) (*Server, error) {
	settings, err := settingsFor(cfg)
	if err != nil {
		return nil, err
	}

	ph, err := proxy.New(proxy.Config{
		Upstream: upstream,
		Settings: settings,
		Logger:   xglog.WithComponent("proxy"),
	})
	if err != nil {
		return nil, fmt.Errorf("create proxy handler: %w", err)
	}

	s := &Server{
		cfg:           cfg,
		proxy:         ph,
		healthManager: health.NewManager(cfg.Version),
		logger:        xglog.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthManager.RegisterChecker(health.NewCredentialChecker(s.credentialConfigured))
	for _, c := range s.checkers {
		s.healthManager.RegisterChecker(c)
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HealthManager exposes the health manager so callers can register checkers.
func (s *Server) HealthManager() *health.Manager {
	return s.healthManager
}

// GetConfig returns the configuration currently applied.
func (s *Server) GetConfig() config.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ApplyConfig swaps the proxy settings (origin policy, cache-control) for
// cfg. Requests already in flight finish with the settings they started
// with. Upstream and listener changes need a restart.
func (s *Server) ApplyConfig(cfg config.AppConfig) error {
	settings, err := settingsFor(cfg)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.apply_failed").
			Msg("rejected configuration; keeping current proxy settings")
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.proxy.Apply(settings)

	s.logger.Info().
		Str(xglog.FieldEvent, "config.applied").
		Str("cors_mode", string(settings.Policy.Mode())).
		Int("allowed_origins", len(settings.Policy.Origins())).
		Str("cache_control", settings.CacheControl).
		Msg("proxy settings applied")
	return nil
}

func (s *Server) credentialConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Upstream.APIKey != ""
}

// settingsFor derives the immutable proxy settings from cfg.
func settingsFor(cfg config.AppConfig) (proxy.Settings, error) {
	policy, err := cfg.CORS.Policy()
	if err != nil {
		return proxy.Settings{}, fmt.Errorf("cors policy: %w", err)
	}
	return proxy.Settings{
		Policy:       policy,
		CacheControl: cfg.CORS.CacheControl,
	}, nil
}
