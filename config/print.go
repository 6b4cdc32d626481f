// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

const redactedValue = "[redacted]"

func (cfg *ServerConfig) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Msg("Starting XEO")

	// Redact sensitive fields using a shallow copy of the config.
	printableConfig := *cfg

	if printableConfig.Basic.PasetoSecret != "" {
		printableConfig.Basic.PasetoSecret = redactedValue
	}

	printableConfig.Database.URL = redactURL(printableConfig.Database.URL)
	printableConfig.Redis.URL = redactURL(printableConfig.Redis.URL)

	// Marshal the processed config to indented YAML.
	configYAML, err := yaml.MarshalWithOptions(
		printableConfig,
		GetDurationEncoderOption(),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Info().
		Msg("Application configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}

// redactURL hides the password of a connection URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	return u.Redacted()
}
