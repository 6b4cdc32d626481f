// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n decides which locale a request is served in and translates
user-facing text through GNU gettext .po catalogues.

# Locales

The supported set is fixed (see [Locales]). [Resolver.Resolve] turns a request
path, its Accept-Language and geo-country headers, and the presence of a
"lang" query parameter into a [Decision]: pass the request through, or
redirect it to a locale-prefixed URL. Pages that must keep their path, such
as /login or /contact, receive the locale as ?lang= instead.

Accept-Language candidates are tried in quality order against three matchers
([MatchExact], [MatchChineseScript], [MatchPrimarySubtag]); the first hit
wins. Without a match the country table decides, then [DefaultLocale].

# Translation

Use the original English UI text as the msgid; do not invent keys.

	i18n.Tr(ctx, "Something went wrong.")
	i18n.TrN(ctx, "{{.Count}} reply", "{{.Count}} replies", n, "Count", n)

The locale is read from ctx (see [WithLocale] and [WithRequest]). Missing
translations return the msgid unchanged. When StrictMissingKeys is enabled,
missing lookups are logged once per locale+key and the returned text is
visibly wrapped as "⟦...⟧".
*/
package i18n
