// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a language-region identifier from the supported set, for example "ja-JP".
type Locale string

// Supported locales.
const (
	EnUS Locale = "en-US"
	ZhCN Locale = "zh-CN"
	ZhTW Locale = "zh-TW"
	EsES Locale = "es-ES"
	FrFR Locale = "fr-FR"
	RuRU Locale = "ru-RU"
	JaJP Locale = "ja-JP"
	DeDE Locale = "de-DE"
	PtBR Locale = "pt-BR"
	KoKR Locale = "ko-KR"
)

// DefaultLocale is served when nothing in the request selects another locale.
const DefaultLocale = EnUS

// BaseLocale is the locale of the msgids themselves; it has no catalogue.
const BaseLocale = DefaultLocale

// supportedLocales is ordered. Matchers that scan the list stop at the first
// hit, so zh-CN must stay ahead of zh-TW.
var supportedLocales = []Locale{EnUS, ZhCN, ZhTW, EsES, FrFR, RuRU, JaJP, DeDE, PtBR, KoKR}

// baseTag is the canonical tag for BaseLocale.
var baseTag = language.Make(string(BaseLocale))

// countryLocales maps ISO 3166-1 alpha-2 country codes to the locale served
// when the client sent no usable Accept-Language header.
var countryLocales = map[string]Locale{
	"US": EnUS, "GB": EnUS, "AU": EnUS, "CA": EnUS, "NZ": EnUS, "IE": EnUS, "IN": EnUS,
	"CN": ZhCN, "SG": ZhCN,
	"TW": ZhTW, "HK": ZhTW, "MO": ZhTW,
	"ES": EsES, "MX": EsES, "AR": EsES, "CO": EsES, "CL": EsES, "PE": EsES, "VE": EsES,
	"FR": FrFR, "BE": FrFR, "LU": FrFR, "MC": FrFR,
	"RU": RuRU, "BY": RuRU, "KZ": RuRU,
	"JP": JaJP,
	"DE": DeDE, "AT": DeDE, "CH": DeDE, "LI": DeDE,
	"BR": PtBR, "PT": PtBR, "AO": PtBR, "MZ": PtBR,
	"KR": KoKR,
}

// Locales returns the supported locales in matching order.
//
// The returned slice is a copy and is safe to retain.
func Locales() []Locale {
	return slices.Clone(supportedLocales)
}

// ParseLocale returns the supported locale equal to s, ignoring case.
func ParseLocale(s string) (Locale, bool) {
	for _, l := range supportedLocales {
		if strings.EqualFold(string(l), s) {
			return l, true
		}
	}

	return "", false
}

// LocaleForCountry returns the locale mapped to a two-letter country code.
func LocaleForCountry(code string) (Locale, bool) {
	l, ok := countryLocales[strings.ToUpper(strings.TrimSpace(code))]

	return l, ok
}

// PrimarySubtag returns the language part of l, for example "fr" for "fr-FR".
func (l Locale) PrimarySubtag() string {
	return primarySubtag(string(l))
}

// Tag returns l as a BCP 47 language tag.
func (l Locale) Tag() language.Tag {
	return language.Make(string(l))
}

func (l Locale) String() string {
	return string(l)
}

func primarySubtag(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		return tag[:i]
	}

	return tag
}
