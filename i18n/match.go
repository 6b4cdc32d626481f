// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Matcher maps a single language range to a supported locale.
type Matcher func(tag string) (Locale, bool)

// matchers are tried in order for every candidate; the first hit wins.
var matchers = []Matcher{
	MatchExact,
	MatchChineseScript,
	MatchPrimarySubtag,
}

// MatchExact matches tag against the supported locales, ignoring case.
func MatchExact(tag string) (Locale, bool) {
	return ParseLocale(tag)
}

// MatchChineseScript disambiguates Chinese tags by script and region.
//
// Bare "zh" and simplified signals (Hans, CN) select zh-CN. Traditional
// signals (Hant, HK, TW, MO) select zh-TW. A script subtag takes precedence
// over a region subtag. Other Chinese tags such as zh-SG are left to the
// following matchers.
func MatchChineseScript(tag string) (Locale, bool) {
	if !strings.EqualFold(primarySubtag(tag), "zh") {
		return "", false
	}

	script, region := chineseSubtags(tag)

	switch script {
	case "hans":
		return ZhCN, true
	case "hant":
		return ZhTW, true
	}

	switch region {
	case "cn":
		return ZhCN, true
	case "hk", "tw", "mo":
		return ZhTW, true
	case "":
		if script == "" {
			return ZhCN, true
		}
	}

	return "", false
}

// MatchPrimarySubtag matches the language part of tag against the primary
// subtag of each supported locale, in list order.
func MatchPrimarySubtag(tag string) (Locale, bool) {
	lang := primarySubtag(tag)
	if lang == "" || lang == "*" {
		return "", false
	}

	for _, l := range supportedLocales {
		if strings.EqualFold(l.PrimarySubtag(), lang) {
			return l, true
		}
	}

	return "", false
}

// MatchTag applies every matcher to tag in order.
func MatchTag(tag string) (Locale, bool) {
	for _, match := range matchers {
		if l, ok := match(tag); ok {
			return l, true
		}
	}

	return "", false
}

// MatchAcceptLanguage returns the locale for the highest priority candidate
// in header that any matcher accepts.
func MatchAcceptLanguage(header string) (Locale, bool) {
	for _, c := range ParseAcceptLanguage(header) {
		if l, ok := MatchTag(c.Tag); ok {
			return l, true
		}
	}

	return "", false
}

// chineseSubtags returns the lower-cased script and region subtags of tag,
// each empty when absent.
func chineseSubtags(tag string) (script, region string) {
	if t, err := language.Parse(tag); err == nil {
		_, s, r := t.Raw()
		if s != (language.Script{}) {
			script = strings.ToLower(s.String())
		}

		if r != (language.Region{}) {
			region = strings.ToLower(r.String())
		}

		return script, region
	}

	// Tags x/text rejects still carry usable subtags, for example "zh_TW" or
	// private-use suffixes.
	for _, sub := range strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })[1:] {
		switch sub = strings.ToLower(sub); {
		case len(sub) == 4 && script == "":
			script = sub
		case len(sub) == 2 && region == "":
			region = sub
		}
	}

	return script, region
}
