// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"net/http"
	"net/netip"
	"strings"

	"codeberg.org/xeoos/xeo/config"
)

var (
	errMissingClientIP = errors.New("missing client IP")
	errInvalidIPFormat = errors.New("invalid IP format")
)

// ClientInfo is the network identity of one request.
//
// Instances are ephemeral and exist only for the duration of a single HTTP request lifecycle.
type ClientInfo struct {
	addr    netip.Addr
	network netip.Prefix
	limiter *limiterWrapper
}

// newClientInfo resolves the client address and network of r. The limiter is
// attached later, once the request is known to be limited.
func newClientInfo(r *http.Request) (*ClientInfo, error) {
	addr, err := clientAddr(r)
	if err != nil {
		return nil, err
	}

	return &ClientInfo{
		addr:    addr,
		network: networkOf(addr),
	}, nil
}

// checkIPLists checks if the client's IP is on the pass or block list.
//
// Returns (allowed, blocked) as a tuple - at most one can be true.
func (c *ClientInfo) checkIPLists() (bool, bool) {
	if listed(c.addr, config.Global.Limiter.PassIPs) {
		return true, false
	}

	if listed(c.addr, config.Global.Limiter.BlockIPs) {
		return false, true
	}

	return false, false
}

// isLocal reports loopback and link-local addresses, for both IPv4 and IPv6.
func (c *ClientInfo) isLocal() bool {
	return c.addr.IsLoopback() || c.addr.IsLinkLocalUnicast()
}

// isLimitedRequest reports whether r writes through the API.
func isLimitedRequest(r *http.Request) bool {
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
