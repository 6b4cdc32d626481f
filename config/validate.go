// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/authenticated"
	"codeberg.org/xeoos/xeo/server/utils"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errUnixSocketUserDoesNotExist   = errors.New("user does not exist")
	errUnixSocketGroupDoesNotExist  = errors.New("group does not exist")
	errPasetoKeyInvalid             = errors.New("basic.publicKey or basic.secret is not a valid paseto key")
	errDatabaseURLRequired          = errors.New("database.url is required")
	errInvalidDatabaseDriver        = errors.New("invalid Database.Driver")
	errInvalidIsolation             = errors.New("invalid Database.TxIsolation")
	errInvalidRetry                 = errors.New("database retry settings must not be negative")
	errInvalidStaleAfter            = errors.New("database.staleAfter must be positive")
	errInvalidCacheSize             = errors.New("cache.cacheSize must be positive when the cache is enabled")
	errInvalidSpecialPath           = errors.New("locale special paths must start with '/'")
	errEmptyCountryHeader           = errors.New("locale.countryHeader cannot be empty")
	errInvalidLimiterRate           = errors.New("limiter rate and burst must be positive")
	errInvalidIPv4Prefix            = errors.New("IPv4 prefix must be between 0 and 32")
	errInvalidIPv6Prefix            = errors.New("IPv6 prefix must be between 0 and 128")
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
	digitsRegexp         = regexp.MustCompile(`^[0-9]+$`)
)

// validateAndSet validates the server configuration and populates some fields.
func (cfg *ServerConfig) validateAndSet() error {
	// Handle listener configuration
	if cfg.Basic.UnixSocket != "" {
		if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
			return errUnixSocketWithHostPort
		}

		// Handle unix socket permissions
		switch {
		case cfg.Basic.RawUnixSocketPermissions == "":
			cfg.Basic.UnixSocketPermissions = 0o666
		case fileModeOctalRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
			rawModeUint64, _ := strconv.ParseUint(cfg.Basic.RawUnixSocketPermissions, 8, 32)

			cfg.Basic.UnixSocketPermissions = os.FileMode(rawModeUint64)
		case fileModeStringRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
			mode := os.FileMode(0)

			for i, c := range cfg.Basic.RawUnixSocketPermissions {
				// If permission bit is set
				if c != '-' {
					// Set i-th bit from the end
					const bitsInByte = 8

					mode |= 1 << (bitsInByte - i)
				}
			}

			cfg.Basic.UnixSocketPermissions = mode
		default:
			return errUnixSocketInvalidPermissions
		}

		// Check if user is valid
		if cfg.Basic.UnixSocketUser != "" {
			if digitsRegexp.MatchString(cfg.Basic.UnixSocketUser) {
				if _, err := user.LookupId(cfg.Basic.UnixSocketUser); err != nil {
					return errUnixSocketUserDoesNotExist
				}
			} else {
				if _, err := user.Lookup(cfg.Basic.UnixSocketUser); err != nil {
					return errUnixSocketUserDoesNotExist
				}
			}
		}

		// Check if group is valid
		if cfg.Basic.UnixSocketGroup != "" {
			if digitsRegexp.MatchString(cfg.Basic.UnixSocketGroup) {
				if _, err := user.LookupGroupId(cfg.Basic.UnixSocketGroup); err != nil {
					return errUnixSocketGroupDoesNotExist
				}
			} else {
				if _, err := user.LookupGroup(cfg.Basic.UnixSocketGroup); err != nil {
					return errUnixSocketGroupDoesNotExist
				}
			}
		}
	} else {
		// Set TCP defaults
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "8282"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}
	}

	if err := cfg.validateDatabase(); err != nil {
		return err
	}

	if err := cfg.loadTokenKey(); err != nil {
		return err
	}

	if cfg.Worker.URL != "" {
		workerURL, err := utils.ParseURL(cfg.Worker.URL, "Translation worker")
		if err != nil {
			return fmt.Errorf("invalid worker URL: %w", err)
		}

		cfg.Worker.URL = strings.TrimSuffix(workerURL.String(), "/")
	}

	if cfg.Cache.Enabled && cfg.Cache.Size <= 0 {
		return errInvalidCacheSize
	}

	for _, p := range cfg.Locale.SpecialPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%w: %q", errInvalidSpecialPath, p)
		}
	}

	if cfg.Locale.CountryHeader == "" {
		return errEmptyCountryHeader
	}

	// Skip validating Limiter configuration if it's not enabled
	if !cfg.Limiter.Enabled {
		return nil
	}

	if cfg.Limiter.Rate <= 0 || cfg.Limiter.Burst <= 0 {
		return errInvalidLimiterRate
	}

	if cfg.Limiter.IPv4Prefix < 0 || cfg.Limiter.IPv4Prefix > 32 {
		return errInvalidIPv4Prefix
	}

	if cfg.Limiter.IPv6Prefix < 0 || cfg.Limiter.IPv6Prefix > 128 {
		return errInvalidIPv6Prefix
	}

	return nil
}

var isolationLevels = map[string]sql.IsolationLevel{
	"":                 sql.LevelDefault,
	"default":          sql.LevelDefault,
	"read uncommitted": sql.LevelReadUncommitted,
	"read committed":   sql.LevelReadCommitted,
	"repeatable read":  sql.LevelRepeatableRead,
	"serializable":     sql.LevelSerializable,
}

func (cfg *ServerConfig) validateDatabase() error {
	db := &cfg.Database

	if db.URL == "" {
		return errDatabaseURLRequired
	}

	switch db.Driver {
	case "pgx", "postgres":
		// valid
	default:
		return fmt.Errorf("%w: %q", errInvalidDatabaseDriver, db.Driver)
	}

	level, ok := isolationLevels[strings.ToLower(strings.TrimSpace(db.TxIsolation))]
	if !ok {
		return fmt.Errorf("%w: %q", errInvalidIsolation, db.TxIsolation)
	}

	db.isolation = level

	if db.MaxRetries < 0 || db.RetryDelay < 0 {
		return errInvalidRetry
	}

	if db.StaleAfter <= 0 {
		return errInvalidStaleAfter
	}

	return nil
}

// loadTokenKey loads the bearer token key into TokenValidator. A public key
// takes precedence; a secret key is accepted for development setups.
func (cfg *ServerConfig) loadTokenKey() error {
	switch {
	case cfg.Basic.PasetoPublicKey != "":
		if err := TokenValidator.LoadPublicKeyFromHex(cfg.Basic.PasetoPublicKey); err != nil {
			return fmt.Errorf("%w: %w", errPasetoKeyInvalid, err)
		}
	case cfg.Basic.PasetoSecret != "":
		if err := TokenValidator.LoadSecretKeyFromHex(cfg.Basic.PasetoSecret); err != nil {
			key := authenticated.NewSecretKeyHex()
			log.Error().Err(err).Msgf("Generated secret key (put this in config.yaml)\nbasic:\n  secret: %q", key)

			return errPasetoKeyInvalid
		}

		// remove key. no longer needed.
		cfg.Basic.PasetoSecret = ""
	default:
		log.Warn().Msg("No token key configured; /api write routes will reject every request")
	}

	return nil
}
