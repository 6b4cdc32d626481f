// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/config"
)

// clientAddr returns the address a request is attributed to.
//
// X-Real-IP, then the last X-Forwarded-For hop, are honoured only when the
// peer itself is on a private or loopback network, i.e. a reverse proxy in
// front of XEO.
func clientAddr(r *http.Request) (netip.Addr, error) {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	if peer == "" {
		return netip.Addr{}, errMissingClientIP
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return netip.Addr{}, errInvalidIPFormat
	}

	addr = addr.Unmap()

	forwarded := forwardedFor(r)

	switch {
	case forwarded == "":
		return addr, nil
	case !addr.IsPrivate() && !addr.IsLoopback():
		log.Debug().
			Str("sys", "limiter").
			Stringer("peer", addr).
			Msg("Ignoring proxy headers from a public peer")

		return addr, nil
	}

	client, err := netip.ParseAddr(forwarded)
	if err != nil {
		return netip.Addr{}, errInvalidIPFormat
	}

	return client.Unmap(), nil
}

func forwardedFor(r *http.Request) string {
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	xff := r.Header.Get("X-Forwarded-For")
	if i := strings.LastIndexByte(xff, ','); i >= 0 {
		xff = xff[i+1:]
	}

	return strings.TrimSpace(xff)
}

// listed reports whether addr equals an entry of list or lies inside one of
// its CIDR ranges. Entries that parse as neither are skipped.
func listed(addr netip.Addr, list []string) bool {
	for _, entry := range list {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			if prefix.Contains(addr) {
				return true
			}

			continue
		}

		if other, err := netip.ParseAddr(entry); err == nil && other.Unmap() == addr {
			return true
		}
	}

	return false
}

// networkOf returns the network that shares a token bucket with addr, sized
// by the configured IPv4 and IPv6 prefix lengths.
func networkOf(addr netip.Addr) netip.Prefix {
	bits := config.Global.Limiter.IPv6Prefix
	if addr.Is4() {
		bits = config.Global.Limiter.IPv4Prefix
	}

	network, err := addr.Prefix(bits)
	if err != nil {
		return netip.PrefixFrom(addr, addr.BitLen())
	}

	return network
}
