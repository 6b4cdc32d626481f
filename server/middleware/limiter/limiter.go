// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"codeberg.org/xeoos/xeo/config"
)

const (
	LimiterExpiryDuration = time.Hour       // How long to keep idle limiters in memory.
	CleanupInterval       = 5 * time.Minute // Interval between limiter cleanup runs.
)

var (
	limiters sync.Map   // network string -> *limiterWrapper
	timeNow  = time.Now // Wrapper for time.Now, which allows us to mock it in tests.
)

// limiterWrapper holds the token bucket of one IP network.
type limiterWrapper struct {
	limiter    *rate.Limiter
	network    string
	lastAccess time.Time
	mu         sync.Mutex
}

// checkRateLimit attempts to consume 1 token from the limiterWrapper.
//
// It returns zero if the request is allowed, or how long the client has to
// wait for the next token. A refused request consumes nothing.
func checkRateLimit(limiter *limiterWrapper) time.Duration {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := timeNow()
	limiter.lastAccess = now

	reservation := limiter.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return LimiterExpiryDuration
	}

	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)

		log.Warn().
			Str("sys", "limiter").
			Str("network", limiter.network).
			Dur("retry_after", delay).
			Msg("Rate limit exceeded")
	}

	return delay
}

// getOrCreateLimiter returns the limiterWrapper for the given network,
// creating one with the configured rate and burst if needed.
func getOrCreateLimiter(networkStr string) *limiterWrapper {
	if limWrapper, found := loadLimiterFromMemory(networkStr); found {
		return limWrapper
	}

	limWrapper := newLimiterWrapper(config.Global.Limiter.Rate, config.Global.Limiter.Burst, networkStr)

	actual, _ := limiters.LoadOrStore(networkStr, limWrapper)

	return actual.(*limiterWrapper)
}

// loadLimiterFromMemory tries to load the limiterWrapper of a network.
func loadLimiterFromMemory(network string) (*limiterWrapper, bool) {
	value, ok := limiters.Load(network)
	if !ok {
		return nil, false
	}

	limWrapper, ok := value.(*limiterWrapper)
	if !ok {
		return nil, false
	}

	limWrapper.mu.Lock()
	limWrapper.lastAccess = timeNow()
	limWrapper.mu.Unlock()

	return limWrapper, true
}

func newLimiterWrapper(rateLim float64, burstLim int, network string) *limiterWrapper {
	now := timeNow()

	return &limiterWrapper{
		limiter:    rate.NewLimiter(rate.Limit(rateLim), burstLim),
		network:    network,
		lastAccess: now,
	}
}

// remaining reports the whole tokens left and the time until the bucket is full.
func (l *limiterWrapper) remaining() (int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := timeNow()
	tokens := l.limiter.TokensAt(now)
	burst := l.limiter.Burst()

	if tokens >= float64(burst) || l.limiter.Limit() <= 0 {
		return burst, 0
	}

	left := max(int(tokens), 0)
	deficit := float64(burst) - tokens

	return left, time.Duration(deficit / float64(l.limiter.Limit()) * float64(time.Second))
}

// cleanupExpiredLimiters removes limiters that haven't been accessed for the expiry duration.
func cleanupExpiredLimiters() int {
	now := timeNow()

	var keysToDelete []any

	limiters.Range(func(key, value any) bool {
		limWrapper, ok := value.(*limiterWrapper)
		if !ok {
			keysToDelete = append(keysToDelete, key)

			return true
		}

		limWrapper.mu.Lock()
		lastAccess := limWrapper.lastAccess
		limWrapper.mu.Unlock()

		if now.Sub(lastAccess) > LimiterExpiryDuration {
			keysToDelete = append(keysToDelete, key)
		}

		return true
	})

	for _, key := range keysToDelete {
		limiters.Delete(key)
	}

	if len(keysToDelete) > 0 {
		log.Info().
			Str("sys", "limiter").
			Int("count", len(keysToDelete)).
			Msg("Cleaned up expired limiters")
	}

	return len(keysToDelete)
}
