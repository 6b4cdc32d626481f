// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// lastCleanupAt holds the UnixNano of the last cleanup run.
var lastCleanupAt atomic.Int64

// DoCleanup starts a background sweep of idle limiters at most once per
// CleanupInterval. It is called from the request path.
func DoCleanup() {
	now := timeNow()
	last := lastCleanupAt.Load()

	if last == 0 {
		lastCleanupAt.CompareAndSwap(0, now.UnixNano())

		return
	}

	if now.Sub(time.Unix(0, last)) < CleanupInterval {
		return
	}

	if !lastCleanupAt.CompareAndSwap(last, now.UnixNano()) {
		return // another request won the race
	}

	go func() {
		removed := cleanupExpiredLimiters()

		log.Debug().
			Str("sys", "limiter").
			Time("start", now).
			Int("removed", removed).
			Dur("dur", time.Since(now)).
			Msg("limiter cleanup")
	}()
}
