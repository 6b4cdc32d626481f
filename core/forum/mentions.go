// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"regexp"
	"strings"
)

// MaxMentions caps how many users one reply can notify.
const MaxMentions = 10

var mentionRegexp = regexp.MustCompile(`(?:^|[^\w@.])@([A-Za-z0-9_]{2,32})\b`)

// Mentions returns the distinct lower-cased handles mentioned with @handle
// in body, in order of first appearance.
func Mentions(body string) []string {
	var handles []string

	seen := make(map[string]bool)

	for _, m := range mentionRegexp.FindAllStringSubmatch(body, -1) {
		h := strings.ToLower(m[1])
		if seen[h] {
			continue
		}

		seen[h] = true

		handles = append(handles, h)
		if len(handles) == MaxMentions {
			break
		}
	}

	return handles
}
