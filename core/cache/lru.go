// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package cache provides a thread-safe, fixed-capacity least-recently-used
(LRU) cache of byte payloads with per-entry expiry.

When created with compression enabled, payloads are stored zstd-compressed
whenever that makes them smaller and are decompressed transparently by
[LRU.Get]. [GetJSON] and [SetJSON] layer typed values on top.
*/
package cache

import (
	"container/list"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("cache: size must be positive")

// LRU is a fixed-capacity, least-recently-used cache that is safe for
// concurrent use. Construct it with [New]; the zero value is not ready for use.
type LRU struct {
	size      int
	ttl       time.Duration
	evictList *list.List
	items     map[string]*list.Element
	lock      sync.Mutex

	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder

	now func() time.Time
}

type entry struct {
	key        string
	payload    []byte
	compressed bool
	expiresAt  time.Time
}

// New creates a cache holding at most size entries. Entries expire ttl after
// they were last set; a non-positive ttl disables expiry.
func New(size int, ttl time.Duration, compress bool) (*LRU, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &LRU{
		size:      size,
		ttl:       ttl,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
		now:       time.Now,
	}

	if compress {
		// A nil writer/reader lets us use EncodeAll/DecodeAll without streams.
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.zstdEnc = enc
		c.zstdDec = dec
	}

	return c, nil
}

// Set stores a copy of value under key, making it the most recently used.
// Set reports whether an older entry was evicted to make room.
func (c *LRU) Set(key string, value []byte) bool {
	payload, compressed := c.encode(value)

	c.lock.Lock()
	defer c.lock.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)

		ent := el.Value.(*entry)
		ent.payload = payload
		ent.compressed = compressed
		ent.expiresAt = expiresAt

		return false
	}

	c.items[key] = c.evictList.PushFront(&entry{
		key:        key,
		payload:    payload,
		compressed: compressed,
		expiresAt:  expiresAt,
	})

	evicted := c.evictList.Len() > c.size
	if evicted {
		c.removeElement(c.evictList.Back())
	}

	return evicted
}

// Get returns a copy of the payload for key and marks it most recently used.
// Expired entries are removed and reported as missing.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok {
		c.lock.Unlock()

		return nil, false
	}

	ent := el.Value.(*entry)
	if !ent.expiresAt.IsZero() && c.now().After(ent.expiresAt) {
		c.removeElement(el)
		c.lock.Unlock()

		return nil, false
	}

	c.evictList.MoveToFront(el)

	payload, compressed := ent.payload, ent.compressed

	c.lock.Unlock()

	return c.decode(payload, compressed)
}

// Remove deletes key and reports whether it was present. A nil *LRU holds
// nothing.
func (c *LRU) Remove(key string) bool {
	if c == nil {
		return false
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	el, ok := c.items[key]
	if ok {
		c.removeElement(el)
	}

	return ok
}

// Len returns the number of entries, expired ones included until they are read.
func (c *LRU) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

func (c *LRU) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

// encode runs outside the lock; zstd.Encoder supports concurrent EncodeAll.
func (c *LRU) encode(value []byte) ([]byte, bool) {
	if c.zstdEnc != nil && len(value) > 0 {
		if packed := c.zstdEnc.EncodeAll(value, nil); len(packed) < len(value) {
			return packed, true
		}
	}

	return append([]byte(nil), value...), false
}

func (c *LRU) decode(payload []byte, compressed bool) ([]byte, bool) {
	if !compressed {
		return append([]byte(nil), payload...), true
	}

	decoded, err := c.zstdDec.DecodeAll(payload, nil)
	if err != nil {
		return nil, false
	}

	return decoded, true
}

// GetJSON decodes the JSON payload stored under key into a T.
func GetJSON[T any](c *LRU, key string) (T, bool) {
	var v T

	if c == nil {
		return v, false
	}

	payload, ok := c.Get(key)
	if !ok {
		return v, false
	}

	if err := json.Unmarshal(payload, &v); err != nil {
		c.Remove(key)

		return v, false
	}

	return v, true
}

// SetJSON stores v under key as JSON.
func SetJSON[T any](c *LRU, key string, v T) error {
	if c == nil {
		return nil
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.Set(key, payload)

	return nil
}
