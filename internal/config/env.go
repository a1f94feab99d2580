// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lyle-ventures/fredproxy/internal/log"
)

// Environment variable names.
const (
	EnvConfigPath          = "FREDPROXY_CONFIG"
	EnvAPIKey              = "FRED_API_KEY"
	EnvLogLevel            = "FREDPROXY_LOG_LEVEL"
	EnvLogFormat           = "FREDPROXY_LOG_FORMAT"
	EnvListen              = "FREDPROXY_LISTEN"
	EnvUpstreamBase        = "FREDPROXY_UPSTREAM_BASE"
	EnvUpstreamTimeout     = "FREDPROXY_UPSTREAM_TIMEOUT"
	EnvCORSMode            = "FREDPROXY_CORS_MODE"
	EnvAllowedOrigins      = "FREDPROXY_ALLOWED_ORIGINS"
	EnvCacheControl        = "FREDPROXY_CACHE_CONTROL"
	EnvMetricsEnabled      = "FREDPROXY_METRICS_ENABLED"
	EnvMetricsListen       = "FREDPROXY_METRICS_LISTEN"
	EnvTracingEnabled      = "FREDPROXY_TRACING_ENABLED"
	EnvTracingExporter     = "FREDPROXY_TRACING_EXPORTER"
	EnvTracingEndpoint     = "FREDPROXY_TRACING_ENDPOINT"
	EnvTracingSamplingRate = "FREDPROXY_TRACING_SAMPLING_RATE"
)

// envReader resolves overrides from the environment. An empty variable
// counts as unset. Malformed values are collected and fail the load.
type envReader struct {
	lookup   func(string) (string, bool)
	logger   zerolog.Logger
	consumed map[string]struct{}
	errs     []error
}

func newEnvReader(lookup func(string) (string, bool)) *envReader {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &envReader{
		lookup:   lookup,
		logger:   log.WithComponent("config"),
		consumed: make(map[string]struct{}),
	}
}

func (e *envReader) raw(key string) (string, bool) {
	e.consumed[key] = struct{}{}
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	evt := e.logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitiveEnv(key) {
		evt = evt.Bool("sensitive", true)
	} else {
		evt = evt.Str("value", v)
	}
	evt.Msg("environment override")
	return v, true
}

func (e *envReader) fail(key, value, kind string, err error) {
	if isSensitiveEnv(key) {
		value = "***"
	}
	e.errs = append(e.errs, fmt.Errorf("%s: invalid %s %q: %w", key, kind, value, err))
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.raw(key); ok {
		*dst = v
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, "duration", err)
		return
	}
	*dst = d
}

// boolean accepts strconv forms plus yes/no.
func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		*dst = true
		return
	case "no", "off":
		*dst = false
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, "boolean", err)
		return
	}
	*dst = b
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, "number", err)
		return
	}
	*dst = f
}

// csv splits on commas and drops blank entries.
func (e *envReader) csv(key string, dst *[]string) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	if list := splitCSV(v); len(list) > 0 {
		*dst = list
	}
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}

func (e *envReader) keys() []string {
	out := make([]string, 0, len(e.consumed))
	for k := range e.consumed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// isSensitiveEnv reports keys whose values must never be logged.
func isSensitiveEnv(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range []string{"token", "password", "secret", "key"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
