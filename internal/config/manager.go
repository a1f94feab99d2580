// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration persistence.
type Manager struct {
	configPath string
}

// NewManager creates a new configuration manager.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
	}
}

// Save writes the configuration to disk atomically. The API key is never
// written; only upstream.apiKeyFile is persisted.
func (m *Manager) Save(cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0750); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pendingFile, err := renameio.NewPendingFile(m.configPath, renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as a YAML document accepted by the strict loader.
func Marshal(cfg *AppConfig) ([]byte, error) {
	fileCfg := ToFileConfig(cfg)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fileCfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// ToFileConfig maps the resolved configuration back to its file form.
func ToFileConfig(cfg *AppConfig) FileConfig {
	cacheControl := cfg.CORS.CacheControl
	samplingRate := cfg.Tracing.SamplingRate

	fc := FileConfig{
		LogLevel:  cfg.LogLevel,
		LogFormat: cfg.LogFormat,
		Server: &ServerFileConfig{
			ListenAddr:      cfg.Server.ListenAddr,
			ReadTimeout:     cfg.Server.ReadTimeout.String(),
			WriteTimeout:    cfg.Server.WriteTimeout.String(),
			IdleTimeout:     cfg.Server.IdleTimeout.String(),
			ShutdownTimeout: cfg.Server.ShutdownTimeout.String(),
		},
		Upstream: &UpstreamFileConfig{
			BaseURL:    cfg.Upstream.BaseURL,
			Timeout:    cfg.Upstream.Timeout.String(),
			APIKeyFile: cfg.Upstream.APIKeyFile,
		},
		CORS: &CORSFileConfig{
			Mode:           cfg.CORS.Mode,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			CacheControl:   &cacheControl,
		},
		Metrics: &MetricsFileConfig{
			Enabled:    boolPtr(cfg.Metrics.Enabled),
			ListenAddr: cfg.Metrics.ListenAddr,
		},
		Tracing: &TracingFileConfig{
			Enabled:      boolPtr(cfg.Tracing.Enabled),
			Exporter:     cfg.Tracing.Exporter,
			Endpoint:     cfg.Tracing.Endpoint,
			SamplingRate: &samplingRate,
		},
	}
	if cfg.Site.ConfigPath != "" {
		fc.Site = &SiteFileConfig{ConfigPath: cfg.Site.ConfigPath}
	}
	return fc
}

func boolPtr(b bool) *bool { return &b }
