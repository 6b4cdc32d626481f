// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BootstrapLevelEnv sets the level of the startup logger, so that problems
// while loading the configuration can be traced.
const BootstrapLevelEnv = "XEO_LOG_LEVEL"

// SetDefaultLogger installs the logger used until the configuration is
// loaded: console output on stderr at the level named by BootstrapLevelEnv,
// Info when unset or unknown.
func SetDefaultLogger() {
	setBootstrapLogger(os.Stderr, os.Getenv(BootstrapLevelEnv))
}

func setBootstrapLogger(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}).
		With().
		Timestamp().
		Str("sys", "boot").
		Logger()
}
