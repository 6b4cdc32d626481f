// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/authenticated"
	"codeberg.org/xeoos/xeo/core/store"
	"codeberg.org/xeoos/xeo/i18n"
)

// Global exposes the server configuration.
var Global ServerConfig

// TokenValidator verifies bearer tokens on /api routes. It is loaded from
// Basic.PasetoPublicKey (or Basic.PasetoSecret) by LoadConfig.
var TokenValidator authenticated.Validator

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"XEO_HOST,overwrite" yaml:"host"`
		Port                     string      `env:"XEO_PORT,overwrite" yaml:"port"`
		UnixSocket               string      `env:"XEO_UNIXSOCKET" yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"XEO_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
		UnixSocketUser           string      `env:"XEO_UNIXSOCKET_USER" yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"XEO_UNIXSOCKET_GROUP" yaml:"unixSocketGroup"`
		// hex of the v4.public key the sign-in pages sign with
		PasetoPublicKey string `env:"XEO_PUBLIC_KEY" yaml:"publicKey"`
		// hex of a v4.public secret key; only for development setups
		PasetoSecret string `env:"XEO_SECRET" yaml:"secret"`
	} `yaml:"basic"`

	Database struct {
		URL             string        `env:"XEO_DATABASE_URL,overwrite" yaml:"url"`
		Driver          string        `env:"XEO_DATABASE_DRIVER,overwrite" yaml:"driver"`
		MaxOpenConns    int           `env:"XEO_DATABASE_MAX_OPEN_CONNS,overwrite" yaml:"maxOpenConns"`
		MaxIdleConns    int           `env:"XEO_DATABASE_MAX_IDLE_CONNS,overwrite" yaml:"maxIdleConns"`
		ConnMaxLifetime time.Duration `env:"XEO_DATABASE_CONN_MAX_LIFETIME,overwrite" yaml:"connMaxLifetime"`
		StaleAfter      time.Duration `env:"XEO_DATABASE_STALE_AFTER,overwrite" yaml:"staleAfter"`
		MaxRetries      int           `env:"XEO_DATABASE_MAX_RETRIES,overwrite" yaml:"maxRetries"`
		RetryDelay      time.Duration `env:"XEO_DATABASE_RETRY_DELAY,overwrite" yaml:"retryDelay"`
		TxMaxWait       time.Duration `env:"XEO_DATABASE_TX_MAX_WAIT,overwrite" yaml:"txMaxWait"`
		TxTimeout       time.Duration `env:"XEO_DATABASE_TX_TIMEOUT,overwrite" yaml:"txTimeout"`
		TxIsolation     string        `env:"XEO_DATABASE_TX_ISOLATION,overwrite" yaml:"txIsolation"`
		MigrateOnStart  bool          `env:"XEO_DATABASE_MIGRATE,overwrite" yaml:"migrateOnStart"`

		isolation sql.IsolationLevel
	} `yaml:"database"`

	Redis struct {
		URL string `env:"XEO_REDIS_URL,overwrite" yaml:"url"`
	} `yaml:"redis"`

	Locale struct {
		CountryHeader string   `env:"XEO_COUNTRY_HEADER,overwrite" yaml:"countryHeader"`
		SpecialPaths  []string `env:"XEO_SPECIAL_PATHS,overwrite" yaml:"specialPaths"`
	} `yaml:"locale"`

	Worker struct {
		URL     string        `env:"XEO_WORKER_URL,overwrite" yaml:"url"`
		Timeout time.Duration `env:"XEO_WORKER_TIMEOUT,overwrite" yaml:"timeout"`
	} `yaml:"worker"`

	Cache struct {
		Enabled bool          `env:"XEO_CACHE,overwrite" yaml:"enabled"`
		Size    int           `env:"XEO_CACHE_SIZE,overwrite" yaml:"cacheSize"`
		TTL     time.Duration `env:"XEO_CACHE_TTL,overwrite" yaml:"cacheTTL"`
	} `yaml:"cache"`

	Development struct {
		InDevelopment        bool   `env:"XEO_DEV" yaml:"inDevelopment"`
		SaveResponses        bool   `env:"XEO_SAVE_RESPONSES,overwrite" yaml:"saveResponses"`
		ResponseSaveLocation string `env:"XEO_RESPONSE_SAVE_LOCATION,overwrite" yaml:"responseSaveLocation"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"XEO_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"XEO_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"XEO_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Limiter struct {
		Enabled     bool     `env:"XEO_LIMITER,overwrite" yaml:"enabled"`
		Rate        float64  `env:"XEO_LIMITER_RATE,overwrite" yaml:"rate"`
		Burst       int      `env:"XEO_LIMITER_BURST,overwrite" yaml:"burst"`
		PassIPs     []string `env:"XEO_LIMITER_PASS_IPS,overwrite" yaml:"passList"`
		BlockIPs    []string `env:"XEO_LIMITER_BLOCK_IPS,overwrite" yaml:"blockList"`
		FilterLocal bool     `env:"XEO_LIMITER_FILTER_LOCAL,overwrite" yaml:"filterLocal"`
		IPv4Prefix  int      `env:"XEO_LIMITER_IPV4_PREFIX,overwrite" yaml:"ipv4Prefix"`
		IPv6Prefix  int      `env:"XEO_LIMITER_IPV6_PREFIX,overwrite" yaml:"ipv6Prefix"`
	} `yaml:"limiter"`

	Metrics struct {
		Enabled bool `env:"XEO_METRICS,overwrite" yaml:"enabled"`
	} `yaml:"metrics"`

	Internationalization struct {
		// Strict mode for missing keys.
		//
		// When enabled, missing keys are logged (deduplicated per locale+key) and
		// visibly wrapped using markers.
		StrictMissingKeys bool `env:"XEO_STRICT_MISSING_KEYS" yaml:"strictMissingKeys"`
	} `yaml:"internationalization"`
}

// LoadConfig loads the configuration from various sources.
func (cfg *ServerConfig) LoadConfig() error {
	path := configFilePath()

	cfg.SetDefaults()

	cfg.Build.load()

	if err := cfg.readYAML(path); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if err := cfg.setupAudit(); err != nil {
		return fmt.Errorf("error setting up logging: %w", err)
	}

	cfg.apply()
	cfg.print()

	// Heuristically check for containerized environment and warn if host is not a wildcard address.
	if isContainerized() && cfg.Basic.UnixSocket == "" && cfg.Basic.Host != "0.0.0.0" && cfg.Basic.Host != "::" {
		log.Warn().
			Str("host", cfg.Basic.Host).
			Msg("Running in a containerized environment but host is not a wildcard address (e.g., '0.0.0.0' or '::'). This may prevent the service from being accessible outside the container.")
	}

	return nil
}

// apply pushes settings into the packages that read them as globals.
func (cfg *ServerConfig) apply() {
	i18n.CountryHeader = cfg.Locale.CountryHeader
	i18n.StrictMissingKeys = cfg.Internationalization.StrictMissingKeys
}

// StoreConfig converts the Database section into the store's configuration.
func (cfg *ServerConfig) StoreConfig() store.Config {
	retry := store.RetryOptions{
		MaxRetries: cfg.Database.MaxRetries,
		Delay:      cfg.Database.RetryDelay,
	}

	return store.Config{
		URL:             cfg.Database.URL,
		Driver:          cfg.Database.Driver,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		StaleAfter:      cfg.Database.StaleAfter,
		Retry:           retry,
		Tx: store.TxOptions{
			MaxWait:      cfg.Database.TxMaxWait,
			Timeout:      cfg.Database.TxTimeout,
			Isolation:    cfg.Database.isolation,
			RetryOptions: retry,
		},
	}
}

// ListenAddr returns host:port for TCP listeners.
func (cfg *ServerConfig) ListenAddr() string {
	return cfg.Basic.Host + ":" + cfg.Basic.Port
}

var skippedPathPrefixes = []string{"/metrics", "/healthz"}

// ShouldSkipServerLogging determines if a request should bypass the logging middleware.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	if cfg.Development.InDevelopment {
		return false
	}

	for _, prefix := range skippedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// isContainerized checks for common indicators of a containerized environment.
//
// This is a heuristic and may not be 100% accurate.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	if _, err := os.Stat("/.containerenv"); err == nil {
		return true
	}

	// #nosec G304 -- We are checking for the existence and content of a well-known system file for heuristics.
	cgroup, err := os.ReadFile("/proc/self/cgroup")
	if err == nil {
		content := string(cgroup)

		return strings.Contains(content, "docker") ||
			strings.Contains(content, "kubepods") ||
			strings.Contains(content, "containerd") ||
			strings.Contains(content, "lxc") ||
			strings.Contains(content, "crio") ||
			// systemd-nspawn containers
			strings.Contains(content, ".machine")
	}

	return false
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
