// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/server/assets"
)

var errNoAssets = errors.New("i18n: assets.FS is not set")

var (
	// poDomain is the gettext domain to load under each locale.
	poDomain = "xeo"

	// catalogues maps a supported locale to its loaded gotext.Locale.
	// BaseLocale never has an entry; its msgids are the source text.
	catalogues map[Locale]*gotext.Locale
)

// Setup loads gettext catalogues from the embedded assets.
//
// The expected layout is:
//
//	po/<locale>.po
//
// The <locale> filename part may use hyphens or underscores, for example
// "pt-BR.po" or "pt_BR.po". Files for locales outside the supported set, and
// the template "po/xeo.pot", are skipped with a warning.
//
// Calling Setup again replaces the previously loaded catalogues.
func Setup() error {
	Logger = log.With().Str("sys", "i18n").Logger()

	catalogues = make(map[Locale]*gotext.Locale)

	if assets.FS == nil {
		return errNoAssets
	}

	entries, err := fs.ReadDir(assets.FS, "po")
	if err != nil {
		return fmt.Errorf("failed to read po directory: %w", err)
	}

	for _, entry := range entries {
		fileName := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(fileName, ".po") {
			continue
		}

		name := strings.ReplaceAll(strings.TrimSuffix(fileName, ".po"), "_", "-")

		locale, ok := ParseLocale(name)
		if !ok {
			Logger.Warn().Str("file", fileName).Msg("Skipping catalogue for unsupported locale")

			continue
		}

		data, err := fs.ReadFile(assets.FS, path.Join("po", fileName))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", fileName, err)
		}

		po := gotext.NewPo()
		po.Parse(data)

		loc := gotext.NewLocale("", string(locale)) // Base path is unused when manually adding translators.
		loc.AddTranslator(poDomain, po)

		catalogues[locale] = loc

		Logger.Info().
			Str("locale", string(locale)).
			Str("domain", poDomain).
			Msg("Loaded locale")
	}

	return nil
}

// Loaded returns the locales that can be translated to, BaseLocale included.
func Loaded() []Locale {
	out := []Locale{BaseLocale}

	for _, l := range supportedLocales {
		if _, ok := catalogues[l]; ok {
			out = append(out, l)
		}
	}

	return out
}
