// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"sync"

	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog"
)

var (
	// Logger is the logger used by package i18n.
	Logger zerolog.Logger

	// StrictMissingKeys enables logging and visible markers for missing
	// translations. Set from configuration at startup.
	StrictMissingKeys bool

	// missingKeyOnce deduplicates WARN logs for missing msgids in strict mode.
	// The key is locale+"\x00"+msgid.
	missingKeyOnce sync.Map
)

func strictMissingKeys() bool {
	return StrictMissingKeys
}

// logMissingOnce logs a missing translation warning once per (locale, msgid) pair
// when strict mode is enabled.
func logMissingOnce(locale, key string) {
	if !strictMissingKeys() {
		return
	}

	id := locale + "\x00" + key
	if _, loaded := missingKeyOnce.LoadOrStore(id, struct{}{}); !loaded {
		Logger.Warn().
			Str("locale", locale).
			Str("key", key).
			Msg("Missing i18n translation")
	}
}

// buildLogKey composes the logging key like gettext "ctx<sep>msgid" when context is present.
func buildLogKey(ctxKey, id string) string {
	if ctxKey != "" {
		return ctxKey + gotext.EotSeparator + id
	}

	return id
}
