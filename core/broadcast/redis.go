// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/metrics"
)

// Redis is a Broadcaster backed by Redis pub/sub. Each user has a channel
// named "xeo:notify:<user id>" carrying JSON-encoded notifications.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to the Redis server at url and verifies it with a ping.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func channelFor(userID uuid.UUID) string {
	return "xeo:notify:" + userID.String()
}

func (r *Redis) Publish(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := r.rdb.Publish(ctx, channelFor(n.UserID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	metrics.NotificationsPublished.WithLabelValues(string(n.Kind)).Inc()

	return nil
}

func (r *Redis) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Notification, func()) {
	ctx, cancel := context.WithCancel(ctx)

	pubsub := r.rdb.Subscribe(ctx, channelFor(userID))
	out := make(chan Notification, subscriberBuffer)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				n, err := decode(msg.Payload)
				if err != nil {
					log.Warn().
						Str("sys", "broadcast").
						Err(err).
						Str("channel", msg.Channel).
						Msg("Skipping malformed notification")

					continue
				}

				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, cancel
}

func decode(payload string) (Notification, error) {
	var n Notification

	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return Notification{}, fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	return n, nil
}
