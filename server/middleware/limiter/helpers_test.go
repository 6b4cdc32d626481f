// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/xeoos/xeo/config"
)

// testConfigMutex serializes tests that mutate global package state.
var testConfigMutex sync.Mutex

// mockTimeProvider maintains a controllable current time for testing.
type mockTimeProvider struct {
	mu          sync.Mutex
	currentTime time.Time
}

func (m *mockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.currentTime
}

// Sleep advances the mock current time by the specified duration.
func (m *mockTimeProvider) Sleep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentTime = m.currentTime.Add(d)
}

// setupLimiterTest installs a mock clock and a test limiter configuration
// (1 token per second, burst 3). Both are restored when the test completes.
//
// NOTE: call it once per test, never from subtests; it holds a global mutex
// and re-entering it would deadlock.
func setupLimiterTest(t *testing.T) *mockTimeProvider {
	t.Helper()

	testConfigMutex.Lock()

	origConfig := config.Global
	origTimeNow := timeNow

	config.Global.Limiter.Enabled = true
	config.Global.Limiter.Rate = 1
	config.Global.Limiter.Burst = 3
	config.Global.Limiter.IPv4Prefix = 24
	config.Global.Limiter.IPv6Prefix = 48
	config.Global.Limiter.PassIPs = []string{"203.0.113.7"}
	config.Global.Limiter.BlockIPs = []string{"198.51.100.0/24"}
	config.Global.Limiter.FilterLocal = false

	mockTime := &mockTimeProvider{currentTime: time.Now()}
	timeNow = mockTime.Now

	limiters = sync.Map{}

	t.Cleanup(func() {
		timeNow = origTimeNow
		limiters = sync.Map{}
		config.Global = origConfig

		testConfigMutex.Unlock()
	})

	return mockTime
}
