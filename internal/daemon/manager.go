// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lyle-ventures/fredproxy/internal/config"
)

// ShutdownHook releases a resource during graceful shutdown.
type ShutdownHook func(ctx context.Context) error

// Manager runs the API listener and the optional metrics listener.
type Manager interface {
	// Start binds every listener, serves until ctx is done or a server
	// fails, then shuts down. Bind errors return before anything is served.
	Start(ctx context.Context) error

	// Shutdown stops the servers, then runs the hooks in reverse
	// registration order. Calls after the first return nil.
	Shutdown(ctx context.Context) error

	RegisterShutdownHook(name string, hook ShutdownHook)
}

type lifecycle int

const (
	stateIdle lifecycle = iota
	stateRunning
	stateStopped
)

type namedHook struct {
	name string
	hook ShutdownHook
}

// endpoint is a bound listener and the server that will serve it.
type endpoint struct {
	name string
	ln   net.Listener
	srv  *http.Server
}

type manager struct {
	cfg    config.ServerConfig
	deps   Deps
	logger zerolog.Logger

	mu      sync.Mutex
	state   lifecycle
	servers []*http.Server // start order
	hooks   []namedHook
}

// NewManager validates deps and returns an idle Manager.
func NewManager(cfg config.ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	return &manager{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With().Str("component", "manager").Logger(),
	}, nil
}

func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("start context is nil")
	}

	m.mu.Lock()
	if m.state != stateIdle {
		m.mu.Unlock()
		return errors.New("manager already started")
	}
	m.state = stateRunning
	m.mu.Unlock()

	m.logger.Info().
		Str("event", "manager.starting").
		Str("listen", m.cfg.ListenAddr).
		Bool("metrics", m.deps.metricsEnabled()).
		Dur("shutdown_timeout", m.cfg.ShutdownTimeout).
		Msg("starting servers")

	endpoints, err := m.bind()
	if err != nil {
		// Hooks still run so the tracer provider is flushed.
		if shutdownErr := m.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			m.logger.Warn().Err(shutdownErr).Msg("cleanup after failed start")
		}
		return err
	}

	errCh := make(chan error, len(endpoints))
	m.mu.Lock()
	for _, ep := range endpoints {
		m.servers = append(m.servers, ep.srv)
		go m.serve(ep, errCh)
	}
	m.mu.Unlock()

	var serveErr error
	select {
	case serveErr = <-errCh:
		m.logger.Error().Err(serveErr).Str("event", "manager.server_failed").Msg("server failed, shutting down")
	case <-ctx.Done():
		m.logger.Info().Str("event", "manager.stopping").Msg("shutdown signal received")
	}

	shutdownErr := m.Shutdown(context.WithoutCancel(ctx))
	switch {
	case serveErr != nil && shutdownErr != nil:
		return fmt.Errorf("server error and shutdown failure: %w", errors.Join(serveErr, shutdownErr))
	case serveErr != nil:
		return serveErr
	default:
		return shutdownErr
	}
}

// bind opens the metrics listener (if enabled) and then the API listener.
// On failure every listener opened so far is closed.
func (m *manager) bind() ([]endpoint, error) {
	var endpoints []endpoint
	fail := func(what string, err error) ([]endpoint, error) {
		for _, ep := range endpoints {
			_ = ep.ln.Close()
		}
		return nil, fmt.Errorf("failed to start %s: %w", what, err)
	}

	if m.deps.metricsEnabled() {
		ln, err := net.Listen("tcp", m.deps.MetricsAddr)
		if err != nil {
			return fail("metrics server", err)
		}
		endpoints = append(endpoints, endpoint{name: "metrics", ln: ln, srv: &http.Server{
			Handler:           m.deps.MetricsHandler,
			ReadHeaderTimeout: m.cfg.ReadTimeout / 2,
		}})
	}

	ln, err := net.Listen("tcp", m.cfg.ListenAddr)
	if err != nil {
		return fail("API server", err)
	}
	endpoints = append(endpoints, endpoint{name: "api", ln: ln, srv: &http.Server{
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.cfg.ReadTimeout,
		ReadHeaderTimeout: m.cfg.ReadTimeout / 2,
		WriteTimeout:      m.cfg.WriteTimeout,
		IdleTimeout:       m.cfg.IdleTimeout,
		MaxHeaderBytes:    config.MaxHeaderBytes,
	}})
	return endpoints, nil
}

func (m *manager) serve(ep endpoint, errCh chan<- error) {
	m.logger.Info().
		Str("event", ep.name+".listening").
		Str("addr", ep.ln.Addr().String()).
		Msg("server listening")

	if err := ep.srv.Serve(ep.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		m.logger.Error().Err(err).Str("event", ep.name+".failed").Msg("server failed")
		errCh <- fmt.Errorf("%s server: %w", ep.name, err)
	}
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return errors.New("shutdown context is nil")
	}

	m.mu.Lock()
	switch m.state {
	case stateIdle:
		m.mu.Unlock()
		return ErrManagerNotStarted
	case stateStopped:
		m.mu.Unlock()
		return nil
	}
	m.state = stateStopped
	servers := append([]*http.Server(nil), m.servers...)
	hooks := append([]namedHook(nil), m.hooks...)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(servers) - 1; i >= 0; i-- {
		if err := servers[i].Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		err := h.hook(ctx)
		evt := m.logger.Debug()
		if err != nil {
			evt = m.logger.Error().Err(err)
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
		}
		evt.Str("hook", h.name).Dur("duration", time.Since(start)).Msg("shutdown hook finished")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str("event", "manager.stopped").Msg("servers stopped cleanly")
	return nil
}

func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, hook: hook})
}
