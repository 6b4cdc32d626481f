// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Candidate is one language range from an Accept-Language header.
type Candidate struct {
	Tag     string
	Quality float64
}

// ParseAcceptLanguage splits an Accept-Language header into candidates ordered
// by descending quality. Ties keep header order.
//
// A q value that does not parse, is not finite or lies outside [0, 1] counts
// as 1.0 for that entry only. Entries with an empty range or q = 0 are dropped.
func ParseAcceptLanguage(header string) []Candidate {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	entries := strings.Split(header, ",")
	candidates := make([]Candidate, 0, len(entries))

	for _, entry := range entries {
		parts := strings.Split(entry, ";")

		tag := strings.TrimSpace(parts[0])
		if tag == "" {
			continue
		}

		quality := 1.0

		for _, param := range parts[1:] {
			name, value, found := strings.Cut(strings.TrimSpace(param), "=")
			if !found || !strings.EqualFold(strings.TrimSpace(name), "q") {
				continue
			}

			if q, ok := parseQuality(value); ok {
				quality = q
			}
		}

		if quality == 0 {
			continue
		}

		candidates = append(candidates, Candidate{Tag: tag, Quality: quality})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Quality > candidates[j].Quality
	})

	return candidates
}

func parseQuality(value string) (float64, bool) {
	q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(q) || q < 0 || q > 1 {
		return 0, false
	}

	return q, true
}
