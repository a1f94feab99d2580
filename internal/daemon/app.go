// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon runs the fredproxy servers and owns the reload wiring.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lyle-ventures/fredproxy/internal/config"
	xglog "github.com/lyle-ventures/fredproxy/internal/log"
)

// ConfigApplier receives every configuration the holder accepts.
type ConfigApplier interface {
	ApplyConfig(cfg config.AppConfig) error
}

// App runs the server manager next to the reload machinery: the file
// watcher, the SIGHUP handler and the loop that hands accepted
// configurations to the applier.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	holder       *config.Holder
	applier      ConfigApplier
	reloadSignal os.Signal
}

// NewApp wires an App. A nil holder disables reloading; a nil applier keeps
// reloads limited to the log level.
func NewApp(logger zerolog.Logger, manager Manager, holder *config.Holder, applier ConfigApplier) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		holder:       holder,
		applier:      applier,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run blocks until ctx is done or the manager fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)
	if a.holder != nil {
		a.runReloads(ctx, g)
	}

	g.Go(func() error {
		if err := a.manager.Start(ctx); err != nil {
			_ = a.manager.Shutdown(context.WithoutCancel(ctx))
			return err
		}
		return nil
	})
	return g.Wait()
}

func (a *App) runReloads(ctx context.Context, g *errgroup.Group) {
	updates := make(chan config.AppConfig, 1)
	a.holder.Subscribe(updates)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg := <-updates:
				a.apply(cfg)
			}
		}
	})

	// A broken watcher costs hot reload, not the process.
	if err := a.holder.Watch(ctx); err != nil {
		a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watch_failed").Msg("config file watcher unavailable")
	}
	g.Go(func() error {
		<-ctx.Done()
		a.holder.Wait()
		return nil
	})

	if a.reloadSignal == nil {
		return
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, a.reloadSignal)
	g.Go(func() error {
		defer signal.Stop(sig)
		for {
			select {
			case <-ctx.Done():
				return nil
			case s := <-sig:
				a.logger.Info().
					Str(xglog.FieldEvent, "config.reload_signal").
					Str("signal", s.String()).
					Msg("reloading configuration")
				// Failures are logged by the holder and surface through readiness.
				_ = a.holder.Reload(ctx)
			}
		}
	})
}

func (a *App) apply(cfg config.AppConfig) {
	if a.applier != nil {
		if err := a.applier.ApplyConfig(cfg); err != nil {
			a.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "config.apply_failed").
				Msg("accepted configuration could not be applied")
			return
		}
	}
	if err := xglog.SetLevel(cfg.LogLevel); err != nil {
		a.logger.Warn().Err(err).Str("level", cfg.LogLevel).Msg("log level unchanged")
	}
}
