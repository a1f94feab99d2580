// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log owns the process-wide zerolog logger. Every line carries the
// service name and build version; request-scoped loggers add request_id and
// trace correlation through WithContext.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by Configure.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Formats lists the accepted Config.Format values.
var Formats = []string{FormatJSON, FormatConsole}

// Config describes the process logger. Zero values fall back to info level,
// JSON lines on stdout and the "fredproxy" service name.
type Config struct {
	Level   string
	Format  string
	Output  io.Writer
	Service string
	Version string
}

var (
	mu   sync.RWMutex
	root zerolog.Logger
)

func init() {
	Configure(Config{})
}

// Configure replaces the process logger. It runs once with defaults at
// start-up and again after the configuration file is loaded.
func Configure(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	if cfg.Service == "" {
		cfg.Service = "fredproxy"
	}

	l := zerolog.New(out).With().
		Timestamp().
		Str("service", cfg.Service).
		Str("version", cfg.Version).
		Logger()

	mu.Lock()
	root = l
	mu.Unlock()
}

// SetLevel changes the level without rebuilding the logger. Empty means
// info; an unknown name is an error and changes nothing.
func SetLevel(level string) error {
	if level == "" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return nil
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}

// WithComponent returns a child of the process logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	return l.With().Str(FieldComponent, component).Logger()
}
