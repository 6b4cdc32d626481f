// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"slices"
	"time"

	"codeberg.org/xeoos/xeo/core/store"
	"codeberg.org/xeoos/xeo/i18n"
)

const (
	// Default cache TTL in minutes.
	defaultCacheTTLMinutes = 10
	// Default translation worker timeout in seconds.
	defaultWorkerTimeoutSeconds = 10
	// Default pool connection lifetime in minutes.
	defaultConnMaxLifetimeMinutes = 30
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "8282"

	retry := store.DefaultRetryOptions()
	tx := store.DefaultTxOptions()

	cfg.Database.Driver = "pgx"
	cfg.Database.MaxOpenConns = 20
	cfg.Database.MaxIdleConns = 5
	cfg.Database.ConnMaxLifetime = defaultConnMaxLifetimeMinutes * time.Minute
	cfg.Database.StaleAfter = store.DefaultStaleAfter
	cfg.Database.MaxRetries = retry.MaxRetries
	cfg.Database.RetryDelay = retry.Delay
	cfg.Database.TxMaxWait = tx.MaxWait
	cfg.Database.TxTimeout = tx.Timeout
	cfg.Database.TxIsolation = "read committed"
	cfg.Database.MigrateOnStart = true

	cfg.Locale.CountryHeader = "CF-IPCountry"
	cfg.Locale.SpecialPaths = slices.Clone(i18n.DefaultSpecialPaths)

	cfg.Worker.Timeout = defaultWorkerTimeoutSeconds * time.Second

	cfg.Cache.Enabled = true
	cfg.Cache.Size = 500
	cfg.Cache.TTL = defaultCacheTTLMinutes * time.Minute

	cfg.Development.SaveResponses = false
	cfg.Development.ResponseSaveLocation = "/tmp/xeo/responses"

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = true
	cfg.Limiter.Rate = 1
	cfg.Limiter.Burst = 10
	cfg.Limiter.FilterLocal = false
	cfg.Limiter.IPv4Prefix = 24
	cfg.Limiter.IPv6Prefix = 48

	cfg.Metrics.Enabled = true

	cfg.Internationalization.StrictMissingKeys = false
}
