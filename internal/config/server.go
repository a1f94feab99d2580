// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// ServerConfig holds the API listener settings.
type ServerConfig struct {
	ListenAddr  string
	ReadTimeout time.Duration
	// WriteTimeout must exceed upstream.timeout or slow FRED answers are cut off.
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

const (
	defaultListenAddr      = ":8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 40 * time.Second
	defaultIdleTimeout     = 2 * time.Minute
	defaultShutdownTimeout = 15 * time.Second
	minShutdownTimeout     = 3 * time.Second
)

// MaxHeaderBytes bounds inbound request headers.
const MaxHeaderBytes = 1 << 20

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:      defaultListenAddr,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		IdleTimeout:     defaultIdleTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// normalize raises a positive shutdown timeout to minShutdownTimeout.
func (s *ServerConfig) normalize() {
	if s.ShutdownTimeout > 0 && s.ShutdownTimeout < minShutdownTimeout {
		s.ShutdownTimeout = minShutdownTimeout
	}
}
