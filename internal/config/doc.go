// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config resolves the proxy configuration from built-in defaults, a
// strictly decoded YAML file and FREDPROXY_* environment variables, later
// sources winning. The FRED API key comes only from FRED_API_KEY or the file
// named by upstream.apiKeyFile, and is never written back or printed.
//
// Holder keeps the live configuration and swaps it on SIGHUP or file change.
package config
