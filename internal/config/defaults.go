// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/lyle-ventures/fredproxy/internal/cors"
	"github.com/lyle-ventures/fredproxy/internal/fred"
)

const (
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
	defaultMetricsListenAddr  = ":9090"
	defaultTracingExporter    = "grpc"
	defaultTracingEndpoint    = "localhost:4317"
	defaultTracingSampling    = 1.0
	allowAllCacheControl      = "public, max-age=3600"
	defaultAllowListCacheCtrl = ""
)

// Defaults returns the configuration used when neither a file nor the
// environment override anything. The API key is empty.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
		Server:    defaultServerConfig(),
		Upstream: UpstreamConfig{
			BaseURL: fred.DefaultBaseURL,
			Timeout: fred.DefaultTimeout,
		},
		CORS: CORSConfig{
			Mode:           string(cors.ModeAllowList),
			AllowedOrigins: append([]string(nil), cors.DefaultOrigins...),
			CacheControl:   defaultAllowListCacheCtrl,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: defaultMetricsListenAddr,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     defaultTracingExporter,
			Endpoint:     defaultTracingEndpoint,
			SamplingRate: defaultTracingSampling,
		},
	}
}

// DefaultCacheControl returns the Cache-Control value a CORS mode implies
// when none is configured.
func DefaultCacheControl(mode string) string {
	if m, err := cors.ParseMode(mode); err == nil && m == cors.ModeAllowAll {
		return allowAllCacheControl
	}
	return defaultAllowListCacheCtrl
}
