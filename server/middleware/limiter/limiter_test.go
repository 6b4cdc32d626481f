// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRateLimit(t *testing.T) {
	mockTime := setupLimiterTest(t)

	lim := getOrCreateLimiter("192.0.2.0/24")
	require.NotNil(t, lim)

	for i := range 3 {
		assert.Zero(t, checkRateLimit(lim), "token %d should be available", i+1)
	}

	wait := checkRateLimit(lim)
	assert.Equal(t, time.Second, wait, "next token arrives after 1/rate")

	// A refused request must not consume the token it waited for.
	mockTime.Sleep(time.Second)
	assert.Zero(t, checkRateLimit(lim))
	assert.Positive(t, checkRateLimit(lim))
}

func TestGetOrCreateLimiter(t *testing.T) {
	setupLimiterTest(t)

	first := getOrCreateLimiter("192.0.2.0/24")
	second := getOrCreateLimiter("192.0.2.0/24")
	other := getOrCreateLimiter("2001:db8::/48")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 3, first.limiter.Burst())
	assert.InDelta(t, 1.0, float64(first.limiter.Limit()), 1e-9)
}

func TestLimiterRemaining(t *testing.T) {
	mockTime := setupLimiterTest(t)

	lim := getOrCreateLimiter("192.0.2.0/24")

	left, reset := lim.remaining()
	assert.Equal(t, 3, left)
	assert.Zero(t, reset)

	checkRateLimit(lim)
	checkRateLimit(lim)

	left, reset = lim.remaining()
	assert.Equal(t, 1, left)
	assert.Equal(t, 2*time.Second, reset)

	mockTime.Sleep(2 * time.Second)

	left, _ = lim.remaining()
	assert.Equal(t, 3, left)
}

func TestLimiterCleanup(t *testing.T) {
	mockTime := setupLimiterTest(t)

	getOrCreateLimiter("192.0.2.0/24")

	mockTime.Sleep(LimiterExpiryDuration / 2)
	getOrCreateLimiter("198.18.0.0/24")

	assert.Zero(t, cleanupExpiredLimiters())

	mockTime.Sleep(LimiterExpiryDuration/2 + time.Second)
	assert.Equal(t, 1, cleanupExpiredLimiters())

	_, found := limiters.Load("192.0.2.0/24")
	assert.False(t, found, "idle limiter removed")

	_, found = limiters.Load("198.18.0.0/24")
	assert.True(t, found, "recently used limiter kept")
}
