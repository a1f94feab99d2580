// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strings"

	"github.com/lyle-ventures/fredproxy/internal/cors"
	"github.com/lyle-ventures/fredproxy/internal/log"
	"github.com/lyle-ventures/fredproxy/internal/netutil"
	"github.com/lyle-ventures/fredproxy/internal/telemetry"
	"github.com/lyle-ventures/fredproxy/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
// The API key is not required here; see RequireAPIKey.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.LogLevel("logLevel", cfg.LogLevel)
	v.OneOf("logFormat", cfg.LogFormat, log.Formats)

	// Server
	v.ListenAddr("server.listenAddr", cfg.Server.ListenAddr)
	v.PositiveDuration("server.readTimeout", cfg.Server.ReadTimeout)
	v.PositiveDuration("server.writeTimeout", cfg.Server.WriteTimeout)
	v.PositiveDuration("server.idleTimeout", cfg.Server.IdleTimeout)
	v.PositiveDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout)

	// Upstream
	_, err := netutil.ValidateUpstreamURL(cfg.Upstream.BaseURL)
	v.Check("upstream.baseURL", cfg.Upstream.BaseURL, err)
	v.PositiveDuration("upstream.timeout", cfg.Upstream.Timeout)
	if cfg.Server.WriteTimeout > 0 && cfg.Upstream.Timeout >= cfg.Server.WriteTimeout {
		v.AddError("server.writeTimeout", "must exceed upstream.timeout", cfg.Server.WriteTimeout.String())
	}

	// CORS
	if _, err := cors.ParseMode(cfg.CORS.Mode); err != nil {
		v.AddError("cors.mode", err.Error(), cfg.CORS.Mode)
	} else if _, err := cfg.CORS.Policy(); err != nil {
		v.AddError("cors.allowedOrigins", err.Error(), cfg.CORS.AllowedOrigins)
	}

	// Metrics
	if cfg.Metrics.Enabled {
		v.ListenAddr("metrics.listenAddr", cfg.Metrics.ListenAddr)
		if cfg.Metrics.ListenAddr == cfg.Server.ListenAddr {
			v.AddError("metrics.listenAddr", "must differ from server.listenAddr", cfg.Metrics.ListenAddr)
		}
	}

	// Tracing
	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{telemetry.ExporterGRPC, telemetry.ExporterHTTP})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
	}
	v.FloatRange("tracing.samplingRate", cfg.Tracing.SamplingRate, 0, 1)

	return v.Err()
}

// MinAPIKeyLength is the length of a FRED API key. Shorter values would
// match arbitrary response text and get those responses withheld.
const MinAPIKeyLength = 32

// RequireAPIKey reports ErrMissingAPIKey when no credential is configured and
// ErrShortAPIKey when it is shorter than MinAPIKeyLength.
func RequireAPIKey(cfg AppConfig) error {
	key := strings.TrimSpace(cfg.Upstream.APIKey)
	if key == "" {
		return ErrMissingAPIKey
	}
	if len(key) < MinAPIKeyLength {
		return fmt.Errorf("%w: want at least %d characters", ErrShortAPIKey, MinAPIKeyLength)
	}
	return nil
}

// Policy builds the origin policy described by c.
func (c CORSConfig) Policy() (cors.Policy, error) {
	mode, err := cors.ParseMode(c.Mode)
	if err != nil {
		return cors.Policy{}, err
	}
	return cors.New(mode, c.AllowedOrigins)
}
