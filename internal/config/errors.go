// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrUnknownConfigField marks a YAML key with no matching setting.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrMissingAPIKey means neither FRED_API_KEY nor upstream.apiKeyFile supplied a key.
	ErrMissingAPIKey = errors.New("FRED API key is not configured (set FRED_API_KEY or upstream.apiKeyFile)")

	// ErrShortAPIKey means the configured key is shorter than MinAPIKeyLength.
	ErrShortAPIKey = errors.New("FRED API key is too short")
)
