// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"crypto/tls"
	"net"
	"net/http"
)

const (
	// clientSessionCacheSize defines the size of the TLS session cache.
	clientSessionCacheSize = 8

	// maxIdleConnsPerHost defines maximum idle connections to keep per host.
	// Outbound traffic goes to the translation worker only.
	maxIdleConnsPerHost = 8

	// bufferSize defines the read and write buffer size in bytes (16KB).
	bufferSize = 16 * 1024
)

// HTTPClient is the pre-configured client for outbound calls.
//
// It carries no timeout of its own; callers bound each call with a context.
var HTTPClient = &http.Client{
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{
			ClientSessionCache: tls.NewLRUClientSessionCache(clientSessionCacheSize),
			MinVersion:         tls.VersionTLS12,
		},
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		WriteBufferSize:     bufferSize,
		ReadBufferSize:      bufferSize,
	},
}

// IsConnectionSecure reports whether r arrived over TLS, either directly or
// through a reverse proxy on a private address that set X-Forwarded-Proto.
func IsConnectionSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	return (ip.IsPrivate() || ip.IsLoopback()) && r.Header.Get("X-Forwarded-Proto") == "https"
}
