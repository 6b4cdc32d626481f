// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"net/http"
)

type contextKeyType struct{}

var localeKey = contextKeyType{}

// LangParam is the name of the URL query parameter that carries a locale for
// pages that are not served under a locale prefix.
const LangParam = "lang"

// LocaleCookie holds the locale a user picked in their settings.
const LocaleCookie = "xeo_locale"

// CountryHeader is the request header a CDN or geo-IP layer uses to report
// the client's two-letter country code. Configurable at startup.
var CountryHeader = "CF-IPCountry"

// WithLocale stores l in ctx and returns a derived context that carries it.
//
// Passing the empty Locale clears any existing value. The ctx must not be nil.
func WithLocale(ctx context.Context, l Locale) context.Context {
	return context.WithValue(ctx, localeKey, l)
}

// LocaleFrom returns the locale stored in ctx, or DefaultLocale if none is
// present. It never returns the empty Locale. A nil ctx is allowed.
func LocaleFrom(ctx context.Context) Locale {
	if ctx != nil {
		if l, _ := ctx.Value(localeKey).(Locale); l != "" {
			return l
		}
	}

	return DefaultLocale
}

// FromRequest returns the locale for r by inspecting, in priority order:
// 1) a locale path prefix such as /ja-JP/...
// 2) query parameter [LangParam]
// 3) cookie [LocaleCookie]
// 4) Accept-Language header, then the [CountryHeader] header
//
// Unsupported values at any step are ignored. A nil r yields DefaultLocale.
func FromRequest(r *http.Request) Locale {
	if r == nil {
		return DefaultLocale
	}

	if l, ok := LocaleFromPath(r.URL.Path); ok {
		return l
	}

	if l, ok := ParseLocale(r.URL.Query().Get(LangParam)); ok {
		return l
	}

	if c, err := r.Cookie(LocaleCookie); err == nil {
		if l, ok := ParseLocale(c.Value); ok {
			return l
		}
	}

	return Negotiate(r.Header.Get("Accept-Language"), r.Header.Get(CountryHeader))
}

// WithRequest resolves the locale from r using [FromRequest] and installs it
// in the returned context. The ctx must not be nil.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return WithLocale(ctx, FromRequest(r))
}
