// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/lyle-ventures/fredproxy/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// Holder owns the live configuration. Reload replaces it only when the new
// configuration loads, validates and still carries an API key; otherwise the
// previous configuration keeps serving.
type Holder struct {
	loader   *Loader
	logger   zerolog.Logger
	debounce time.Duration
	wg       sync.WaitGroup

	mu         sync.RWMutex
	current    AppConfig
	reloadedAt time.Time
	reloadErr  string

	subsMu sync.Mutex
	subs   []chan<- AppConfig
}

// NewHolder returns a holder serving initial and reloading through loader.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	return &Holder{
		loader:   loader,
		logger:   xglog.WithComponent("config"),
		debounce: reloadDebounce,
		current:  initial,
	}
}

// Current returns the configuration in effect.
func (h *Holder) Current() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// LastReload returns when the last reload attempt finished and its error
// text, empty on success. The zero time means none was attempted.
func (h *Holder) LastReload() (time.Time, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.reloadedAt, h.reloadErr
}

// Subscribe registers ch for every configuration Reload accepts. Sends never
// block: a subscriber whose buffer is full misses that update.
func (h *Holder) Subscribe(ch chan<- AppConfig) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	h.subs = append(h.subs, ch)
}

// Reload re-reads the file and environment.
func (h *Holder) Reload(_ context.Context) error {
	next, err := h.loader.Load()
	if err == nil {
		err = RequireAPIKey(next)
	}

	h.mu.Lock()
	prev := h.current
	h.reloadedAt = time.Now()
	if err != nil {
		h.reloadErr = err.Error()
		h.mu.Unlock()
		h.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Msg("reload rejected; keeping current configuration")
		return fmt.Errorf("reload config: %w", err)
	}
	h.current = next
	h.reloadErr = ""
	h.mu.Unlock()

	changes := Diff(prev, next)
	h.logger.Info().
		Str(xglog.FieldEvent, "config.reloaded").
		Strs("changed", changes.Fields()).
		Strs("restart_required", changes.RestartRequired()).
		Msg("configuration reloaded")

	h.publish(next)
	return nil
}

func (h *Holder) publish(cfg AppConfig) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().
				Str(xglog.FieldEvent, "config.subscriber_busy").
				Msg("subscriber not ready; update dropped")
		}
	}
}

// Watch reloads after the config file changes, debouncing bursts of events.
// It returns immediately when the holder has no file. The goroutine it
// starts exits when ctx is done; Wait blocks until then.
func (h *Holder) Watch(ctx context.Context) error {
	path := h.loader.ConfigPath()
	if path == "" {
		h.logger.Info().
			Str(xglog.FieldEvent, "config.watch_skipped").
			Msg("no config file; watching disabled")
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// The directory, not the file: atomic replaces rename over the old inode.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	h.logger.Info().
		Str(xglog.FieldEvent, "config.watching").
		Str("path", path).
		Msg("watching config file")

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.watch(ctx, w, filepath.Clean(path))
	}()
	return nil
}

func (h *Holder) watch(ctx context.Context, w *fsnotify.Watcher, target string) {
	defer func() { _ = w.Close() }()

	var pending <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				timer.Reset(h.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			_ = h.Reload(ctx)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "config.watch_error").
				Msg("config watcher error")
		}
	}
}

// Wait blocks until the Watch goroutine has exited.
func (h *Holder) Wait() {
	h.wg.Wait()
}

// Changes lists the configuration fields that differ between two configs.
type Changes []string

// hotFields apply without a restart.
var hotFields = []string{"logLevel", "cors.mode", "cors.allowedOrigins", "cors.cacheControl"}

// Diff compares two configurations. The API key appears as
// "upstream.apiKey" and its value is never reported.
func Diff(prev, next AppConfig) Changes {
	var c Changes
	add := func(field string, changed bool) {
		if changed {
			c = append(c, field)
		}
	}
	add("logLevel", prev.LogLevel != next.LogLevel)
	add("logFormat", prev.LogFormat != next.LogFormat)
	add("server", prev.Server != next.Server)
	add("upstream.baseURL", prev.Upstream.BaseURL != next.Upstream.BaseURL)
	add("upstream.timeout", prev.Upstream.Timeout != next.Upstream.Timeout)
	add("upstream.apiKey", prev.Upstream.APIKey != next.Upstream.APIKey)
	add("cors.mode", prev.CORS.Mode != next.CORS.Mode)
	add("cors.allowedOrigins", !slices.Equal(prev.CORS.AllowedOrigins, next.CORS.AllowedOrigins))
	add("cors.cacheControl", prev.CORS.CacheControl != next.CORS.CacheControl)
	add("metrics", prev.Metrics != next.Metrics)
	add("tracing", prev.Tracing != next.Tracing)
	add("site.configPath", prev.Site != next.Site)
	return c
}

// Fields returns every changed field.
func (c Changes) Fields() []string {
	return []string(c)
}

// RestartRequired returns the changed fields a running process cannot apply.
func (c Changes) RestartRequired() []string {
	var out []string
	for _, f := range c {
		if !slices.Contains(hotFields, f) {
			out = append(out, f)
		}
	}
	return out
}
