// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchExact(t *testing.T) {
	t.Parallel()

	for _, l := range Locales() {
		got, ok := MatchExact(string(l))
		assert.True(t, ok, l)
		assert.Equal(t, l, got)
	}

	got, ok := MatchExact("PT-br")
	assert.True(t, ok)
	assert.Equal(t, PtBR, got)

	_, ok = MatchExact("pt")
	assert.False(t, ok)
}

func TestMatchChineseScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag    string
		want   Locale
		wantOK bool
	}{
		{"zh", ZhCN, true},
		{"ZH", ZhCN, true},
		{"zh-Hans", ZhCN, true},
		{"zh-Hans-HK", ZhCN, true},
		{"zh-cn", ZhCN, true},
		{"zh-Hant", ZhTW, true},
		{"zh-Hant-TW", ZhTW, true},
		{"zh-HK", ZhTW, true},
		{"zh-MO", ZhTW, true},
		{"zh_TW", ZhTW, true},
		{"zh-SG", "", false},
		{"zh-MY", "", false},
		{"ja-JP", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()

			got, ok := MatchChineseScript(tt.tag)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchPrimarySubtag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag    string
		want   Locale
		wantOK bool
	}{
		{"fr-CH", FrFR, true},
		{"en", EnUS, true},
		{"EN-gb", EnUS, true},
		{"pt-PT", PtBR, true},
		{"zh-SG", ZhCN, true},
		{"it-IT", "", false},
		{"*", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()

			got, ok := MatchPrimarySubtag(tt.tag)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   Locale
		wantOK bool
	}{
		{"primary subtag ahead of lower quality", "fr-CH;q=0.9, en;q=0.8", FrFR, true},
		{"traditional chinese", "zh-Hant-TW", ZhTW, true},
		{"bare chinese", "zh", ZhCN, true},
		{"exact match preferred within a candidate", "ko-KR,ja;q=0.9", KoKR, true},
		{"unmatched candidates skipped", "it, nl;q=0.9, de;q=0.1", DeDE, true},
		{"nothing supported", "it, nl", "", false},
		{"malformed entries tolerated", ";;,q=1,es-MX;q=x", EsES, true},
		{"nan quality counts as one", "de;q=0.5, fr;q=nan", FrFR, true},
		{"negative quality counts as one", "de;q=0.5, fr;q=-1", FrFR, true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := MatchAcceptLanguage(tt.header)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
