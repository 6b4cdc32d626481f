// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/audit"
)

const (
	responseDirPermissions = 0o700
	logFilePermissions     = 0o640
)

// setupAudit installs the global logger described by the Log section and
// prepares the directory for saved translation worker responses.
func (cfg *ServerConfig) setupAudit() error {
	zerolog.SetGlobalLevel(cfg.logLevel())

	writers := make([]io.Writer, 0, len(cfg.Log.Outputs)+1)

	for _, output := range cfg.Log.Outputs {
		w, err := cfg.logWriter(output)
		if err != nil {
			// The logger is not installed yet.
			fmt.Fprintf(os.Stderr, "Skipping log output %s: %v\n", output, err)

			continue
		}

		writers = append(writers, w)
	}

	if len(writers) == 0 {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	audit.SaveResponses = cfg.Development.SaveResponses
	audit.ResponseDirectory = cfg.Development.ResponseSaveLocation

	if audit.SaveResponses {
		if err := os.MkdirAll(audit.ResponseDirectory, responseDirPermissions); err != nil {
			return fmt.Errorf("failed to create response directory %s: %w", audit.ResponseDirectory, err)
		}
	}

	return nil
}

// logLevel is Trace in development and the configured level otherwise.
// Unknown levels mean Info.
func (cfg *ServerConfig) logLevel() zerolog.Level {
	if cfg.Development.InDevelopment {
		return zerolog.TraceLevel
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return level
}

// logWriter opens one entry of Log.Outputs. Files are appended to.
func (cfg *ServerConfig) logWriter(output string) (io.Writer, error) {
	var f *os.File

	switch output {
	case "/dev/stdout":
		f = os.Stdout
	case "/dev/stderr":
		f = os.Stderr
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec G302,G304
		if err != nil {
			return nil, err
		}

		f = file
	}

	if cfg.Log.Format == "json" {
		return f, nil
	}

	return ConsoleWriter(f), nil
}

// ConsoleWriter returns a human-readable zerolog writer for f. Colours, and
// the one-line rendering of audit spans, are used only on terminals.
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd())

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			compactSpan(m)

			return nil
		}
	}

	return w
}

// compactSpan folds the fields of an audit span log into its message:
// "[worker] 200 POST /translate" for HTTP calls and
// "[database] TX    forum.create_post" for data access, whose status is 0.
func compactSpan(m map[string]any) {
	if sys, ok := m["sys"]; !ok || sys != "http" {
		return
	}

	if status := fmt.Sprint(m["status_code"]); status != "0" && status != "<nil>" {
		m["message"] = fmt.Sprintf("[%s] %s %-5s %s", m["destination"], status, m["method"], m["url"])
	} else {
		m["message"] = fmt.Sprintf("[%s] %-5s %s", m["destination"], m["method"], m["url"])
	}

	for _, k := range []string{"sys", "method", "status_code", "url", "destination", "request_id"} {
		delete(m, k)
	}
}
