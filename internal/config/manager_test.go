// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Defaults()
	cfg.CORS.Mode = "allow-all"
	cfg.CORS.CacheControl = ""
	cfg.Upstream.APIKey = "never-written"
	cfg.Upstream.APIKeyFile = "fred.key"
	cfg.Site.ConfigPath = "site.yaml"

	require.NoError(t, NewManager(path).Save(&cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never-written")
	assert.Contains(t, string(data), "apiKeyFile: fred.key")

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "fred.key"), []byte("k"), 0o600))
	loaded, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	want := cfg
	want.Upstream.APIKey = "k"
	if diff := cmp.Diff(want, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshal_StrictlyLoadable(t *testing.T) {
	cfg := Defaults()
	data, err := Marshal(&cfg)
	require.NoError(t, err)

	fc, err := parseFileConfig(data)
	require.NoError(t, err)
	require.NotNil(t, fc.CORS)
	require.NotNil(t, fc.CORS.CacheControl)
	assert.Equal(t, "", *fc.CORS.CacheControl)
	assert.Nil(t, fc.Site)
}
