// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 4, 9, 8, 7, 0, time.UTC)
	assert.Equal(t, "090807", maketime(now))

	id := Make()
	assert.Len(t, id, 10)
	assert.NotEqual(t, id, Make())
}

func TestNew(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()

	assert.Equal(t, uuid.Version(7), a.Version())
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a.String()[:8], b.String()[:8], "time-ordered prefix")
}
