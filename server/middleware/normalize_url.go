// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"
)

// NormalizeURL redirects to the canonical form of the request path:
// repeated slashes are collapsed and the trailing slash is removed (except root).
//
// 308 keeps the method and body, so API clients are redirected too.
func NormalizeURL(w http.ResponseWriter, r *http.Request, next http.Handler) {
	canonical := canonicalPath(r.URL.Path)
	if canonical == r.URL.Path {
		next.ServeHTTP(w, r)

		return
	}

	target := *r.URL
	target.Path = canonical
	target.RawPath = ""

	http.Redirect(w, r, target.RequestURI(), http.StatusPermanentRedirect)
}

// hasTrailingSlash checks if a path has a trailing slash (except root).
func hasTrailingSlash(path string) bool {
	return path != "/" && strings.HasSuffix(path, "/")
}

func canonicalPath(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	for hasTrailingSlash(path) {
		path = strings.TrimSuffix(path, "/")
	}

	return path
}
