// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/metrics"
)

// Hub is an in-process Broadcaster. The zero value is ready to use.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[*subscriber]struct{}
}

type subscriber struct {
	ch   chan Notification
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Publish never blocks: a subscriber whose buffer is full misses n.
func (h *Hub) Publish(_ context.Context, n Notification) error {
	metrics.NotificationsPublished.WithLabelValues(string(n.Kind)).Inc()

	h.deliver(n)

	return nil
}

func (h *Hub) deliver(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[n.UserID] {
		select {
		case sub.ch <- n:
		default:
			log.Warn().
				Str("sys", "broadcast").
				Str("user_id", n.UserID.String()).
				Msg("Dropped notification for slow subscriber")
		}
	}
}

func (h *Hub) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Notification, func()) {
	sub := &subscriber{ch: make(chan Notification, subscriberBuffer)}

	h.mu.Lock()

	if h.subs == nil {
		h.subs = make(map[uuid.UUID]map[*subscriber]struct{})
	}

	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}

	h.subs[userID][sub] = struct{}{}

	h.mu.Unlock()

	ctx, stop := context.WithCancel(ctx)

	var once sync.Once

	cancel := func() {
		stop()

		once.Do(func() {
			h.mu.Lock()

			delete(h.subs[userID], sub)

			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}

			sub.close()

			h.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return sub.ch, cancel
}

// Subscribers returns the number of open subscriptions for userID.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs[userID])
}
