// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cache

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	c, err := New(0, 0, false)
	require.ErrorIs(t, err, ErrInvalidSize)
	assert.Nil(t, c)

	c, err = New(3, time.Minute, true)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c, err := New(2, 0, false)
	require.NoError(t, err)

	assert.False(t, c.Set("a", []byte("1")))
	assert.False(t, c.Set("b", []byte("2")))

	// Touch "a" so "b" becomes the oldest.
	_, ok := c.Get("a")
	require.True(t, ok)

	assert.True(t, c.Set("c", []byte("3")))

	_, ok = c.Get("b")
	assert.False(t, ok)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), got)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_Compression(t *testing.T) {
	t.Parallel()

	c, err := New(4, 0, true)
	require.NoError(t, err)

	big := []byte(strings.Repeat("reply body ", 500))
	c.Set("big", big)

	c.lock.Lock()
	stored := c.items["big"].Value.(*entry)
	c.lock.Unlock()

	assert.True(t, stored.compressed)
	assert.Less(t, len(stored.payload), len(big))

	got, ok := c.Get("big")
	require.True(t, ok)
	assert.Equal(t, big, got)

	// Tiny payloads do not shrink and are stored as-is.
	c.Set("tiny", []byte("x"))

	got, ok = c.Get("tiny")
	require.True(t, ok)
	assert.Equal(t, []byte("x"), got)
}

func TestLRU_CopiesPayloads(t *testing.T) {
	t.Parallel()

	c, err := New(1, 0, false)
	require.NoError(t, err)

	in := []byte("abc")
	c.Set("k", in)
	in[0] = 'z'

	out, _ := c.Get("k")
	out[1] = 'z'

	again, _ := c.Get("k")
	assert.Equal(t, []byte("abc"), again)
}

func TestLRU_Expiry(t *testing.T) {
	t.Parallel()

	c, err := New(2, time.Minute, false)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", []byte("v"))

	now = now.Add(59 * time.Second)

	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)

	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Remove(t *testing.T) {
	t.Parallel()

	c, err := New(2, 0, false)
	require.NoError(t, err)

	c.Set("k", []byte("v"))

	assert.True(t, c.Remove("k"))
	assert.False(t, c.Remove("k"))

	var nilCache *LRU
	assert.False(t, nilCache.Remove("k"))
}

func TestJSON(t *testing.T) {
	t.Parallel()

	type thread struct {
		Title   string
		Replies []string
	}

	c, err := New(2, 0, true)
	require.NoError(t, err)

	want := thread{Title: "hello", Replies: []string{"a", "b"}}
	require.NoError(t, SetJSON(c, "t", want))

	got, ok := GetJSON[thread](c, "t")
	require.True(t, ok)
	assert.Equal(t, want, got)

	c.Set("bad", []byte("{"))

	_, ok = GetJSON[thread](c, "bad")
	assert.False(t, ok)
	assert.False(t, c.Remove("bad"), "undecodable entries are dropped")

	_, ok = GetJSON[thread](nil, "t")
	assert.False(t, ok)
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c, err := New(16, 0, true)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 100 {
				key := strconv.Itoa((i + j) % 32)
				c.Set(key, []byte(strings.Repeat(key, 64)))
				c.Get(key)
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}
