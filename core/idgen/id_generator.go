// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package idgen generates identifiers for stored records and for log
correlation.
*/
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// New returns a time-ordered (version 7) UUID for a new record, so that
// primary keys of posts and replies sort roughly by creation time.
func New() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}

	return id
}

// Make makes a short request ID with a 6 byte timestamp and 3 bytes of entropy.
func Make() string {
	var entropy [3]byte

	_, _ = rand.Read(entropy[:])

	return maketime(time.Now()) + base64.RawURLEncoding.EncodeToString(entropy[:])
}

func maketime(t time.Time) string {
	return t.Format("150405")
}
