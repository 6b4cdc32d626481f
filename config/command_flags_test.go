// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickConfigPath(t *testing.T) {
	t.Parallel()

	only := func(paths ...string) func(string) bool {
		return func(p string) bool {
			for _, q := range paths {
				if p == q {
					return true
				}
			}

			return false
		}
	}

	tests := []struct {
		name      string
		flagValue string
		flagSet   bool
		env       string
		exists    func(string) bool
		want      string
	}{
		{"flag wins over env", "/etc/xeo.yaml", true, "/srv/xeo.yaml", only(), "/etc/xeo.yaml"},
		{"env when flag unset", defaultYAMLPath, false, "/srv/xeo.yaml", only(), "/srv/xeo.yaml"},
		{"default yaml", defaultYAMLPath, false, "", only(defaultYAMLPath, fallbackYMLPath), defaultYAMLPath},
		{"yml fallback", defaultYAMLPath, false, "", only(fallbackYMLPath), fallbackYMLPath},
		{"nothing on disk", defaultYAMLPath, false, "", only(), defaultYAMLPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, pickConfigPath(tt.flagValue, tt.flagSet, tt.env, tt.exists))
		})
	}
}
