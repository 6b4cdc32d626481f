// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"

	"codeberg.org/xeoos/xeo/config"
	"codeberg.org/xeoos/xeo/core/metrics"
	"codeberg.org/xeoos/xeo/i18n"
	"codeberg.org/xeoos/xeo/server/request_context"
	"codeberg.org/xeoos/xeo/server/utils"
)

// unroutedPrefixes are served without a locale decision.
var unroutedPrefixes = []string{"/api/", "/og/", "/debug/"}

var unroutedPaths = []string{"/api", "/metrics", "/healthz"}

// LocaleRouting sends every page request to a localised URL.
//
// Requests already under a /<locale> prefix, or carrying the lang query
// parameter, pass through. Others are redirected with 307 to /<locale><path>,
// or for special pages to the same path with lang=<locale> appended. The
// request path is exposed in the X-Current-Path header on both the forwarded
// request and the response.
func LocaleRouting(w http.ResponseWriter, r *http.Request, next http.Handler) {
	path := r.URL.Path

	r.Header.Set(request_context.CurrentPathHeader, path)
	w.Header().Set(request_context.CurrentPathHeader, path)

	if skipLocaleRouting(path) {
		next.ServeHTTP(w, r)

		return
	}

	resolver := i18n.NewResolver(config.Global.Locale.SpecialPaths)

	decision := resolver.Resolve(i18n.Input{
		Path:           path,
		RawQuery:       r.URL.RawQuery,
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Country:        r.Header.Get(i18n.CountryHeader),
		HasLangParam:   r.URL.Query().Has(i18n.LangParam),
	})

	metrics.LocaleDecisions.WithLabelValues(decision.Action.String(), string(decision.Locale)).Inc()

	if decision.Action == i18n.Redirect {
		http.Redirect(w, r, decision.RedirectPath, http.StatusTemporaryRedirect)

		return
	}

	if decision.Locale != "" {
		rc := request_context.FromRequest(r)
		rc.Locale = decision.Locale

		r = r.WithContext(i18n.WithLocale(r.Context(), decision.Locale))
	}

	next.ServeHTTP(w, r)
}

func skipLocaleRouting(path string) bool {
	for _, p := range unroutedPaths {
		if path == p {
			return true
		}
	}

	for _, p := range unroutedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return utils.HasFileExtension(path)
}
