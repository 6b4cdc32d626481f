// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestReadYAML(t *testing.T) {
	t.Parallel()

	path := writeYAML(t, `
database:
  url: postgres://localhost/xeo
  retryDelay: 250ms
locale:
  specialPaths: [/login, /help]
limiter:
  ipv4Prefix: 16
`)

	cfg := &ServerConfig{}
	cfg.SetDefaults()
	require.NoError(t, cfg.readYAML(path))

	assert.Equal(t, "postgres://localhost/xeo", cfg.Database.URL)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.RetryDelay)
	assert.Equal(t, []string{"/login", "/help"}, cfg.Locale.SpecialPaths)
	assert.Equal(t, 16, cfg.Limiter.IPv4Prefix)
	assert.Equal(t, 48, cfg.Limiter.IPv6Prefix, "unset keys keep their defaults")
}

func TestReadYAML_Errors(t *testing.T) {
	t.Parallel()

	cfg := &ServerConfig{}

	require.NoError(t, cfg.readYAML(""))
	require.NoError(t, cfg.readYAML(filepath.Join(t.TempDir(), "absent.yaml")))

	err := cfg.readYAML(writeYAML(t, "limiter:\n  ipv4Prefx: 16\n"))
	require.Error(t, err, "misspelt keys are rejected")
	assert.Contains(t, err.Error(), "ipv4Prefx")

	err = cfg.readYAML(writeYAML(t, "database: [unterminated\n"))
	require.Error(t, err)
}
