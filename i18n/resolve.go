// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"net/url"
	"strings"
)

// Action is the routing outcome of a locale decision.
type Action int

const (
	// Passthrough leaves the request untouched; the page layer owns the locale.
	Passthrough Action = iota

	// Redirect sends the client to Decision.RedirectPath.
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}

	return "passthrough"
}

// DefaultSpecialPaths are pages that keep their path and receive the locale
// through the LangParam query parameter instead of a path prefix.
var DefaultSpecialPaths = []string{
	"/login",
	"/register",
	"/signin",
	"/signup",
	"/auth",
	"/verify",
	"/verify-email",
	"/forgot-password",
	"/reset-password",
	"/privacy",
	"/terms",
	"/policy",
	"/contact",
}

// Input holds the parts of a request that influence the locale decision.
type Input struct {
	Path           string
	RawQuery       string
	AcceptLanguage string
	Country        string
	HasLangParam   bool
}

// Decision is the result of [Resolver.Resolve].
//
// Locale is empty for a passthrough that carries no recognisable locale.
// RedirectPath is empty unless Action is Redirect.
type Decision struct {
	Locale       Locale
	Action       Action
	RedirectPath string
}

// Resolver decides which locale a request is served in and whether it must
// be redirected to a localised URL. The zero value uses DefaultSpecialPaths.
type Resolver struct {
	// SpecialPaths overrides DefaultSpecialPaths when non-nil.
	SpecialPaths []string
}

// NewResolver returns a Resolver with the given special paths. A nil slice
// selects DefaultSpecialPaths.
func NewResolver(specialPaths []string) *Resolver {
	return &Resolver{SpecialPaths: specialPaths}
}

// Resolve never fails: anything it cannot match falls back to DefaultLocale.
func (rs *Resolver) Resolve(in Input) Decision {
	if l, ok := LocaleFromPath(in.Path); ok {
		return Decision{Locale: l, Action: Passthrough}
	}

	if in.HasLangParam {
		l, _ := ParseLocale(langValue(in.RawQuery))

		return Decision{Locale: l, Action: Passthrough}
	}

	locale := Negotiate(in.AcceptLanguage, in.Country)

	if rs.isSpecial(in.Path) {
		return Decision{
			Locale:       locale,
			Action:       Redirect,
			RedirectPath: withLangParam(in.Path, in.RawQuery, locale),
		}
	}

	target := "/" + string(locale)
	if in.Path != "/" && in.Path != "" {
		target += in.Path
	}

	if in.RawQuery != "" {
		target += "?" + in.RawQuery
	}

	return Decision{Locale: locale, Action: Redirect, RedirectPath: target}
}

// Negotiate picks a locale from an Accept-Language header, then from a
// country code, then falls back to DefaultLocale.
func Negotiate(acceptLanguage, country string) Locale {
	if l, ok := MatchAcceptLanguage(acceptLanguage); ok {
		return l
	}

	if l, ok := LocaleForCountry(country); ok {
		return l
	}

	return DefaultLocale
}

// LocaleFromPath reports the locale in the first segment of path, if the path
// is "/<locale>" or starts with "/<locale>/".
func LocaleFromPath(path string) (Locale, bool) {
	rest, ok := strings.CutPrefix(path, "/")
	if !ok {
		return "", false
	}

	segment, _, _ := strings.Cut(rest, "/")

	return ParseLocale(segment)
}

// StripLocale removes a leading locale segment from path. The result always
// starts with "/".
func StripLocale(path string) string {
	l, ok := LocaleFromPath(path)
	if !ok {
		return path
	}

	rest := path[1+len(l):]
	if rest == "" {
		return "/"
	}

	return rest
}

func (rs *Resolver) isSpecial(path string) bool {
	special := rs.SpecialPaths
	if special == nil {
		special = DefaultSpecialPaths
	}

	for _, p := range special {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}

	return false
}

// withLangParam sets LangParam on rawQuery. Other pairs are kept verbatim and
// in order, malformed ones included. An existing LangParam pair is replaced
// in place; otherwise the new pair goes last.
func withLangParam(path, rawQuery string, locale Locale) string {
	lang := LangParam + "=" + url.QueryEscape(string(locale))
	pairs := make([]string, 0, strings.Count(rawQuery, "&")+2)
	replaced := false

	for pair := range strings.SplitSeq(rawQuery, "&") {
		if pair == "" {
			continue
		}

		if !isLangPair(pair) {
			pairs = append(pairs, pair)

			continue
		}

		if !replaced {
			pairs = append(pairs, lang)
			replaced = true
		}
	}

	if !replaced {
		pairs = append(pairs, lang)
	}

	return path + "?" + strings.Join(pairs, "&")
}

func isLangPair(pair string) bool {
	key, _, _ := strings.Cut(pair, "=")
	if unescaped, err := url.QueryUnescape(key); err == nil {
		key = unescaped
	}

	return key == LangParam
}

func langValue(rawQuery string) string {
	query, _ := url.ParseQuery(rawQuery)

	return query.Get(LangParam)
}
