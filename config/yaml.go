// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

// readYAML merges the YAML file at path into cfg. A missing file is not an
// error; an unknown key is, so that a misspelt setting does not silently
// fall back to its default.
func (cfg *ServerConfig) readYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().
			Str("path", path).
			Msg("No YAML configuration file found, using defaults and environment")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("failed to parse YAML from %s:\n%s", path, yaml.FormatError(err, false, true))
	}

	log.Info().
		Str("path", path).
		Msg("Loaded configuration file")

	return nil
}
