// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/xeoos/xeo/core/broadcast"
	"codeberg.org/xeoos/xeo/core/cache"
)

func TestThread_ServedFromCache(t *testing.T) {
	t.Parallel()

	c, err := cache.New(8, time.Minute, true)
	require.NoError(t, err)

	// No store: a cache miss would panic.
	r := New(nil, Options{Cache: c})

	postID := uuid.New()
	want := Thread{
		Post:    Post{ID: postID, Title: "Cached", Body: "body"},
		Replies: []Reply{{ID: uuid.New(), PostID: postID, Body: "first"}},
	}

	require.NoError(t, cache.SetJSON(c, threadKey(postID), want))

	got, err := r.Thread(t.Context(), postID)
	require.NoError(t, err)
	assert.Equal(t, want.Post.Title, got.Post.Title)
	assert.Equal(t, want.Replies[0].Body, got.Replies[0].Body)

	r.forgetThread(postID)
	assert.Zero(t, c.Len())
}

func TestNotifyReply_Recipients(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub()
	r := New(nil, Options{Broadcaster: hub})

	var (
		author     = Author{ID: uuid.New(), Handle: "mika"}
		postAuthor = uuid.New()
		mentioned  = uuid.New()
	)

	subscribe := func(id uuid.UUID) <-chan broadcast.Notification {
		ch, cancel := hub.Subscribe(t.Context(), id)
		t.Cleanup(cancel)

		return ch
	}

	toPostAuthor := subscribe(postAuthor)
	toMentioned := subscribe(mentioned)
	toAuthor := subscribe(author.ID)

	reply := Reply{ID: uuid.New(), PostID: uuid.New()}

	r.notifyReply(t.Context(), author, createdReply{
		reply:      reply,
		postAuthor: postAuthor,
		// The post author and the replier are mentioned too; each user is
		// notified once.
		mentioned: []uuid.UUID{postAuthor, mentioned, author.ID},
	})

	n := <-toPostAuthor
	assert.Equal(t, broadcast.KindReply, n.Kind)
	assert.Equal(t, reply.PostID, n.PostID)
	require.NotNil(t, n.ReplyID)
	assert.Equal(t, reply.ID, *n.ReplyID)
	assert.Equal(t, author.ID, n.ActorID)

	n = <-toMentioned
	assert.Equal(t, broadcast.KindMention, n.Kind)

	assert.Empty(t, toPostAuthor, "one notification per user")
	assert.Empty(t, toAuthor, "no notifications about one's own reply")
}

func TestNotifyReply_SelfReply(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub()
	r := New(nil, Options{Broadcaster: hub})

	author := Author{ID: uuid.New(), Handle: "ren"}

	ch, cancel := hub.Subscribe(t.Context(), author.ID)
	t.Cleanup(cancel)

	r.notifyReply(t.Context(), author, createdReply{
		reply:      Reply{ID: uuid.New(), PostID: uuid.New()},
		postAuthor: author.ID,
	})

	assert.Empty(t, ch)
}

func TestPublish_NoBroadcaster(t *testing.T) {
	t.Parallel()

	r := New(nil, Options{})
	r.publish(t.Context(), broadcast.Notification{UserID: uuid.New(), Kind: broadcast.KindReply})
	r.translate(t.Context(), Post{ID: uuid.New()})
}
