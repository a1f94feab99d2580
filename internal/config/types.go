// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// FileConfig represents the YAML configuration structure
type FileConfig struct {
	LogLevel  string              `yaml:"logLevel,omitempty"`
	LogFormat string              `yaml:"logFormat,omitempty"`
	Server    *ServerFileConfig   `yaml:"server,omitempty"`
	Upstream  *UpstreamFileConfig `yaml:"upstream,omitempty"`
	CORS      *CORSFileConfig     `yaml:"cors,omitempty"`
	Metrics   *MetricsFileConfig  `yaml:"metrics,omitempty"`
	Tracing   *TracingFileConfig  `yaml:"tracing,omitempty"`
	Site      *SiteFileConfig     `yaml:"site,omitempty"`
}

// ServerFileConfig holds HTTP server settings. Durations use Go syntax ("10s").
type ServerFileConfig struct {
	ListenAddr      string `yaml:"listenAddr,omitempty"`
	ReadTimeout     string `yaml:"readTimeout,omitempty"`
	WriteTimeout    string `yaml:"writeTimeout,omitempty"`
	IdleTimeout     string `yaml:"idleTimeout,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

// UpstreamFileConfig holds FRED API settings. The API key itself is never
// read from this file; APIKeyFile points at a file containing it.
type UpstreamFileConfig struct {
	BaseURL    string `yaml:"baseURL,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`
}

// CORSFileConfig holds the origin policy.
type CORSFileConfig struct {
	Mode           string   `yaml:"mode,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	// CacheControl is a pointer so that an explicit "" disables the mode default.
	CacheControl *string `yaml:"cacheControl,omitempty"`
}

// MetricsFileConfig holds Prometheus listener settings.
type MetricsFileConfig struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

// TracingFileConfig holds OpenTelemetry settings.
type TracingFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

// SiteFileConfig points at the site layout declaration.
type SiteFileConfig struct {
	ConfigPath string `yaml:"configPath,omitempty"`
}

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version   string
	LogLevel  string
	LogFormat string
	Server    ServerConfig
	Upstream  UpstreamConfig
	CORS      CORSConfig
	Metrics   MetricsConfig
	Tracing   TracingConfig
	Site      SiteConfig
}

// UpstreamConfig holds the resolved FRED API settings.
type UpstreamConfig struct {
	BaseURL    string
	Timeout    time.Duration
	APIKey     string
	APIKeyFile string
}

// CORSConfig holds the resolved origin policy settings.
type CORSConfig struct {
	Mode           string
	AllowedOrigins []string
	CacheControl   string
}

// MetricsConfig holds the resolved metrics listener settings.
type MetricsConfig struct {
	Enabled    bool
	ListenAddr string
}

// TracingConfig holds the resolved tracing settings.
type TracingConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// SiteConfig holds the resolved site layout settings.
type SiteConfig struct {
	ConfigPath string
}
