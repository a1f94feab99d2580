// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lyle-ventures/fredproxy/internal/netutil"
)

// Loader resolves configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
type Loader struct {
	configPath string
	version    string
	lookupEnv  func(string) (string, bool)
	consumed   []string
}

// NewLoader returns a loader for configPath. An empty path means the
// environment and defaults only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
		lookupEnv:  os.LookupEnv,
	}
}

// ConfigPath returns the file the loader reads, or "" for ENV-only configuration.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

// ConsumedEnvKeys lists, sorted, the environment variables the last Load consulted.
func (l *Loader) ConsumedEnvKeys() []string {
	return l.consumed
}

// Load resolves the configuration. The file is decoded strictly before
// environment overrides apply; the merged result is validated last.
func (l *Loader) Load() (AppConfig, error) {
	// 1. Set defaults
	cfg := Defaults()
	cacheControlSet := false

	// 2. Load from file (if provided)
	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		set, err := mergeFileConfig(&cfg, fileCfg)
		if err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
		cacheControlSet = set
	}

	// 3. Override with environment variables (highest priority)
	env := newEnvReader(l.lookupEnv)
	defer func() { l.consumed = env.keys() }()
	if mergeEnvConfig(&cfg, env) {
		cacheControlSet = true
	}
	if err := env.err(); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	// 4. Mode-dependent defaults
	if !cacheControlSet {
		cfg.CORS.CacheControl = DefaultCacheControl(cfg.CORS.Mode)
	}
	cfg.Server.normalize()

	// 5. Secret
	if err := l.resolveAPIKey(&cfg, env); err != nil {
		return cfg, err
	}

	cfg.Version = l.version

	// 6. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	if base, err := netutil.ValidateUpstreamURL(cfg.Upstream.BaseURL); err == nil {
		cfg.Upstream.BaseURL = base
	}

	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFileConfig(data)
}

func parseFileConfig(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// mergeFileConfig applies file values over cfg. It reports whether the file
// set cors.cacheControl explicitly.
func mergeFileConfig(cfg *AppConfig, f *FileConfig) (bool, error) {
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		cfg.LogFormat = f.LogFormat
	}

	if s := f.Server; s != nil {
		if s.ListenAddr != "" {
			cfg.Server.ListenAddr = s.ListenAddr
		}
		for _, d := range []struct {
			field string
			raw   string
			dst   *time.Duration
		}{
			{"server.readTimeout", s.ReadTimeout, &cfg.Server.ReadTimeout},
			{"server.writeTimeout", s.WriteTimeout, &cfg.Server.WriteTimeout},
			{"server.idleTimeout", s.IdleTimeout, &cfg.Server.IdleTimeout},
			{"server.shutdownTimeout", s.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		} {
			if err := parseDurationField(d.field, d.raw, d.dst); err != nil {
				return false, err
			}
		}
	}

	if u := f.Upstream; u != nil {
		if u.BaseURL != "" {
			cfg.Upstream.BaseURL = u.BaseURL
		}
		if err := parseDurationField("upstream.timeout", u.Timeout, &cfg.Upstream.Timeout); err != nil {
			return false, err
		}
		cfg.Upstream.APIKeyFile = u.APIKeyFile
	}

	cacheControlSet := false
	if c := f.CORS; c != nil {
		if c.Mode != "" {
			cfg.CORS.Mode = c.Mode
		}
		if len(c.AllowedOrigins) > 0 {
			cfg.CORS.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
		}
		if c.CacheControl != nil {
			cfg.CORS.CacheControl = *c.CacheControl
			cacheControlSet = true
		}
	}

	if m := f.Metrics; m != nil {
		if m.Enabled != nil {
			cfg.Metrics.Enabled = *m.Enabled
		}
		if m.ListenAddr != "" {
			cfg.Metrics.ListenAddr = m.ListenAddr
		}
	}

	if t := f.Tracing; t != nil {
		if t.Enabled != nil {
			cfg.Tracing.Enabled = *t.Enabled
		}
		if t.Exporter != "" {
			cfg.Tracing.Exporter = t.Exporter
		}
		if t.Endpoint != "" {
			cfg.Tracing.Endpoint = t.Endpoint
		}
		if t.SamplingRate != nil {
			cfg.Tracing.SamplingRate = *t.SamplingRate
		}
	}

	if s := f.Site; s != nil {
		cfg.Site.ConfigPath = s.ConfigPath
	}

	return cacheControlSet, nil
}

func parseDurationField(field, raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}

// mergeEnvConfig applies environment overrides. It reports whether
// FREDPROXY_CACHE_CONTROL was set.
func mergeEnvConfig(cfg *AppConfig, env *envReader) bool {
	env.str(EnvLogLevel, &cfg.LogLevel)
	env.str(EnvLogFormat, &cfg.LogFormat)

	env.str(EnvListen, &cfg.Server.ListenAddr)

	env.str(EnvUpstreamBase, &cfg.Upstream.BaseURL)
	env.duration(EnvUpstreamTimeout, &cfg.Upstream.Timeout)

	env.str(EnvCORSMode, &cfg.CORS.Mode)
	env.csv(EnvAllowedOrigins, &cfg.CORS.AllowedOrigins)
	_, cacheControlSet := env.raw(EnvCacheControl)
	env.str(EnvCacheControl, &cfg.CORS.CacheControl)

	env.boolean(EnvMetricsEnabled, &cfg.Metrics.Enabled)
	env.str(EnvMetricsListen, &cfg.Metrics.ListenAddr)

	env.boolean(EnvTracingEnabled, &cfg.Tracing.Enabled)
	env.str(EnvTracingExporter, &cfg.Tracing.Exporter)
	env.str(EnvTracingEndpoint, &cfg.Tracing.Endpoint)
	env.float(EnvTracingSamplingRate, &cfg.Tracing.SamplingRate)

	return cacheControlSet
}

// resolveAPIKey reads the secret from FRED_API_KEY or, failing that, from
// upstream.apiKeyFile. Relative key file paths resolve against the config file.
func (l *Loader) resolveAPIKey(cfg *AppConfig, env *envReader) error {
	if key, ok := env.raw(EnvAPIKey); ok {
		cfg.Upstream.APIKey = strings.TrimSpace(key)
		return nil
	}
	if cfg.Upstream.APIKeyFile == "" {
		return nil
	}

	path := l.ResolvePath(cfg.Upstream.APIKeyFile)
	// #nosec G304 -- key file path is provided by the operator
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read upstream.apiKeyFile: %w", err)
	}
	cfg.Upstream.APIKey = strings.TrimSpace(string(data))
	return nil
}

// ResolvePath anchors a relative path from the configuration, such as
// upstream.apiKeyFile or site.configPath, at the config file's directory.
// The loaded configuration keeps the value as written.
func (l *Loader) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || l.configPath == "" {
		return path
	}
	return filepath.Join(filepath.Dir(l.configPath), path)
}
