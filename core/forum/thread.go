// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"codeberg.org/xeoos/xeo/core/cache"
	"codeberg.org/xeoos/xeo/core/metrics"
)

func threadKey(postID uuid.UUID) string {
	return "thread:" + postID.String()
}

// Thread returns a post with its replies. The post and the replies load
// concurrently; the result is cached until the next write to the thread.
func (r *Repository) Thread(ctx context.Context, postID uuid.UUID) (Thread, error) {
	key := threadKey(postID)

	if r.cache != nil {
		if t, ok := cache.GetJSON[Thread](r.cache, key); ok {
			metrics.ThreadCacheLookups.WithLabelValues("hit").Inc()

			return t, nil
		}

		metrics.ThreadCacheLookups.WithLabelValues("miss").Inc()
	}

	var t Thread

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		post, err := r.GetPost(gctx, postID)
		t.Post = post

		return err
	})

	g.Go(func() error {
		replies, err := r.ListReplies(gctx, postID)
		t.Replies = replies

		return err
	})

	if err := g.Wait(); err != nil {
		return Thread{}, err
	}

	_ = cache.SetJSON(r.cache, key, t)

	return t, nil
}

func (r *Repository) forgetThread(postID uuid.UUID) {
	r.cache.Remove(threadKey(postID))
}
