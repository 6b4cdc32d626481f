// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build test

/*
This file is included only when built with '-tags test'.
It provides a reset hook for unit tests. It is not part of production builds.
*/

package i18n

import (
	"sync"
)

// ResetForTests clears global state so tests can exercise Setup multiple times.
//
// Usage:
//
//	go test -tags test ./...
//
// Concurrency: only call from tests before spinning up any goroutines that
// use this package. After resetting, call Setup again to initialize.
func ResetForTests() {
	missingKeyOnce = sync.Map{}
	catalogues = nil
	StrictMissingKeys = false
}
