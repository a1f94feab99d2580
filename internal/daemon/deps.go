// SPDX-License-Identifier: MIT

package daemon

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

var (
	// ErrMissingLogger is returned when Deps carries a disabled logger.
	ErrMissingLogger = errors.New("logger is required")

	// ErrMissingAPIHandler is returned when Deps has no proxy handler.
	ErrMissingAPIHandler = errors.New("API handler is required")

	// ErrMissingManager is returned by App.Run without a Manager.
	ErrMissingManager = errors.New("manager is required")

	// ErrManagerNotStarted is returned by Shutdown before Start.
	ErrManagerNotStarted = errors.New("manager not started")
)

// Deps are the collaborators a Manager serves.
type Deps struct {
	Logger zerolog.Logger

	// APIHandler serves the proxy, health and OpenAPI routes.
	APIHandler http.Handler

	// MetricsHandler and MetricsAddr enable the Prometheus listener.
	// Either one empty disables it.
	MetricsHandler http.Handler
	MetricsAddr    string
}

// Validate reports the first missing dependency.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}

func (d *Deps) metricsEnabled() bool {
	return d.MetricsHandler != nil && d.MetricsAddr != ""
}
