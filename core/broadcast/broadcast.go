// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package broadcast delivers user notifications to open notification streams.

[Hub] fans out within one process. [Redis] publishes through Redis pub/sub
so that every instance behind a load balancer sees every notification.
*/
package broadcast

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind names what happened.
type Kind string

const (
	KindReply   Kind = "reply"
	KindMention Kind = "mention"
)

// Notification tells UserID that something happened to content they follow.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Kind      Kind       `json:"kind"`
	PostID    uuid.UUID  `json:"post_id"`
	ReplyID   *uuid.UUID `json:"reply_id,omitempty"`
	ActorID   uuid.UUID  `json:"actor_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// Broadcaster publishes notifications and streams them to subscribers.
type Broadcaster interface {
	// Publish delivers n to every current subscriber of n.UserID.
	Publish(ctx context.Context, n Notification) error

	// Subscribe streams notifications for userID until ctx is done or the
	// returned cancel function is called. The channel is closed afterwards.
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Notification, func())
}

// subscriberBuffer is how many undelivered notifications a slow subscriber may hold.
const subscriberBuffer = 16
