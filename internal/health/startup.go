// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/lyle-ventures/fredproxy/internal/config"
	"github.com/lyle-ventures/fredproxy/internal/log"
)

// PerformStartupChecks validates the environment before starting the server.
// resolve maps relative file paths from cfg to usable ones; nil keeps them.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig, resolve func(string) string) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	// 1. Credential
	if err := config.RequireAPIKey(cfg); err != nil {
		return err
	}
	logger.Info().Msg("upstream API key is configured")

	// 2. Configuration shape (re-validated; callers may have built cfg by hand)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// 3. Optional files
	sitePath := cfg.Site.ConfigPath
	if resolve != nil {
		sitePath = resolve(sitePath)
	}
	checkOptionalFile(logger, "site.configPath", sitePath)

	logger.Info().Msg("all startup checks passed")
	return nil
}

// checkOptionalFile warns when a configured but non-essential file is unreadable.
func checkOptionalFile(logger zerolog.Logger, field, path string) {
	if path == "" {
		return
	}
	if err := checkFileReadable(path); err != nil {
		logger.Warn().Err(err).Str("field", field).Msg("configured file is not readable")
	}
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
