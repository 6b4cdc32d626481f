// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"os"
)

const (
	configFlag      = "config"
	configFileEnv   = "XEO_CONFIGFILE"
	defaultYAMLPath = "./config.yaml"
	fallbackYMLPath = "./config.yml"
)

// configFilePath decides which YAML file LoadConfig reads: the -config flag
// when given, then XEO_CONFIGFILE, then ./config.yaml, falling back to
// ./config.yml when only that one exists.
func configFilePath() string {
	value, set := parseConfigFlag()

	return pickConfigPath(value, set, os.Getenv(configFileEnv), fileExists)
}

// parseConfigFlag registers -config if needed, parses the command line and
// reports the flag value and whether the user passed it.
func parseConfigFlag() (string, bool) {
	if flag.Lookup(configFlag) == nil {
		flag.String(configFlag, defaultYAMLPath, "Path to an XEO configuration file in YAML format.")
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	set := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == configFlag {
			set = true
		}
	})

	return flag.Lookup(configFlag).Value.String(), set
}

func pickConfigPath(flagValue string, flagSet bool, env string, exists func(string) bool) string {
	switch {
	case flagSet:
		return flagValue
	case env != "":
		return env
	case !exists(flagValue) && exists(fallbackYMLPath):
		return fallbackYMLPath
	default:
		return flagValue
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
