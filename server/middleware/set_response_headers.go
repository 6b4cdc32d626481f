// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"strings"
	"sync/atomic"

	"codeberg.org/xeoos/xeo/config"
	"codeberg.org/xeoos/xeo/server/utils"
)

var (
	// baseHeaders defines the default headers to be set in responses.
	//
	// Xeo-Version and Xeo-Revision are added dynamically in SetResponseHeaders.
	baseHeaders = http.Header{
		"Referrer-Policy":         {"strict-origin-when-cross-origin"},
		"X-Frame-Options":         {"DENY"},
		"X-Content-Type-Options":  {"nosniff"},
		"Permissions-Policy":      {strings.Join(defaultPermissionsPolicy, ", ")},
		"Content-Security-Policy": {strings.Join(baseCSP, "; ") + ";"},
	}

	// baseCSP covers the JSON page data and the SVG share cards.
	baseCSP = []string{
		"base-uri 'none'",
		"default-src 'none'",
		"img-src 'self' data:",
		"style-src 'unsafe-inline'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"form-action 'self'",
	}

	defaultPermissionsPolicy = []string{
		"accelerometer=()",
		"camera=()",
		"display-capture=()",
		"geolocation=()",
		"gyroscope=()",
		"magnetometer=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}
)

// hstsValue is sent only on connections known to be secure.
const hstsValue = "max-age=31536000"

// SetResponseHeaders adds default headers to HTTP responses.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	if config.Global.Development.InDevelopment {
		invalidateCacheInDevelopment(headers)
	}

	if utils.IsConnectionSecure(r) {
		headers.Set("Strict-Transport-Security", hstsValue)
	}

	setCacheControl(headers, r.URL.Path)

	headers.Set("Xeo-Version", config.BuildVersion)
	headers.Set("Xeo-Revision", config.Global.Build.Revision())

	next.ServeHTTP(w, r)
}

var firstDevResponse atomic.Bool

// clear cache on the first response in development
func invalidateCacheInDevelopment(headers http.Header) {
	if firstDevResponse.CompareAndSwap(false, true) {
		headers.Set("Clear-Site-Data", `"cache"`)
	}
}

// setCacheControl picks a default Cache-Control; handlers may override it.
func setCacheControl(headers http.Header, path string) {
	switch {
	case strings.HasPrefix(path, "/api/"), path == "/metrics", path == "/healthz":
		headers.Set("Cache-Control", "no-store")
	case strings.HasPrefix(path, "/og/"):
		// Share cards change only when the post is edited.
		headers.Set("Cache-Control", "public, max-age=3600")
	default:
		headers.Set("Cache-Control", "private, no-cache")
	}

	headers.Add("Vary", "Accept-Language")
}
