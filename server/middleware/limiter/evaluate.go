// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/config"
	"codeberg.org/xeoos/xeo/core/metrics"
	"codeberg.org/xeoos/xeo/i18n"
	"codeberg.org/xeoos/xeo/server/request_context"
	"codeberg.org/xeoos/xeo/server/routes"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit"
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
)

// Evaluate is the entrypoint to the limiter middleware.
//
// Only mutating /api/ requests are limited. The pass list skips the limiter,
// the block list is refused with 403 and everything else draws one token
// from the bucket of the client's network; an empty bucket is refused with
// 429 and a Retry-After header.
func Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	defer DoCleanup()

	if !isLimitedRequest(r) {
		next.ServeHTTP(w, r)

		return
	}

	client, err := newClientInfo(r)
	if err != nil {
		log.Warn().
			Str("sys", "limiter").
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Could not identify client, request not limited")
		next.ServeHTTP(w, r)

		return
	}

	if allowed, blocked := client.checkIPLists(); allowed {
		next.ServeHTTP(w, r)

		return
	} else if blocked {
		log.Warn().
			Str("sys", "limiter").
			Stringer("ip", client.addr).
			Stringer("network", client.network).
			Msg("Request blocked, IP in block-list")

		reject(w, r, http.StatusForbidden, routes.MsgForbidden, "blocked")

		return
	}

	if !config.Global.Limiter.FilterLocal && client.isLocal() {
		next.ServeHTTP(w, r)

		return
	}

	client.limiter = getOrCreateLimiter(client.network.String())

	if wait := checkRateLimit(client.limiter); wait > 0 {
		addRateLimitHeaders(w, client)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))

		reject(w, r, http.StatusTooManyRequests, routes.MsgTooMany, "rate")

		return
	}

	addRateLimitHeaders(w, client)
	next.ServeHTTP(w, r)
}

// reject writes the JSON error body through the common error page.
func reject(w http.ResponseWriter, r *http.Request, status int, msg i18n.MsgKey, reason string) {
	metrics.LimiterRejections.WithLabelValues(reason).Inc()

	request_context.FromRequest(r).RequestError = &routes.HTTPError{Status: status, Msg: msg}

	routes.ErrorPage(w, r)
}

// retryAfterSeconds rounds up, so a client that waits as told finds a token.
func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}

// addRateLimitHeaders adds rate limiting information to the response headers.
func addRateLimitHeaders(w http.ResponseWriter, client *ClientInfo) {
	if client == nil || client.limiter == nil {
		return
	}

	remaining, reset := client.limiter.remaining()

	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(client.limiter.limiter.Burst()))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
	w.Header().Set(HeaderRateLimitReset, strconv.Itoa(int(math.Ceil(reset.Seconds()))))
}
