// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter is a middleware that rate limits writes to the forum API.

Clients are grouped by IP network (IPv4 /24 and IPv6 /48 by default) and each
network shares one token bucket. Reads are never limited.
*/
package limiter
