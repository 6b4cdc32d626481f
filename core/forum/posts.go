// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"codeberg.org/xeoos/xeo/core/idgen"
	"codeberg.org/xeoos/xeo/i18n"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ownerRow struct {
	AuthorID uuid.UUID `db:"author_id"`
}

// ListOptions selects a page of posts, newest first.
type ListOptions struct {
	// Topic restricts the page to one topic; empty lists every topic.
	Topic string

	// Limit defaults to DefaultListLimit and is capped at MaxListLimit.
	Limit int

	// Before continues a previous page: only posts created before it are listed.
	Before time.Time
}

func (o ListOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultListLimit
	case o.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return o.Limit
	}
}

// PostPatch changes some fields of a post; nil fields are kept.
type PostPatch struct {
	Topic *string `json:"topic,omitempty"`
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

func (p PostPatch) apply(post Post) PostInput {
	in := PostInput{Topic: post.Topic, Title: post.Title, Body: post.Body, Locale: post.Locale}

	if p.Topic != nil {
		in.Topic = *p.Topic
	}

	if p.Title != nil {
		in.Title = *p.Title
	}

	if p.Body != nil {
		in.Body = *p.Body
	}

	in.normalize(post.Locale)

	return in
}

// CreatePost publishes a new post by author. The locale defaults to the
// request locale in ctx.
func (r *Repository) CreatePost(ctx context.Context, author Author, in PostInput) (Post, error) {
	in.normalize(i18n.LocaleFrom(ctx))

	if err := in.Validate(); err != nil {
		return Post{}, err
	}

	id := idgen.New()

	res, err := write(ctx, r, "create_post", func(ctx context.Context, tx *sqlx.Tx) (txResult[Post], error) {
		if o, err := ensureUser(ctx, tx, author); err != nil || o != done {
			return txResult[Post]{outcome: o}, err
		}

		post, err := insertPost(ctx, tx, id, author, in)

		return txResult[Post]{value: post}, err
	})

	post, err := res.unwrap(err)
	if err != nil {
		return Post{}, err
	}

	r.translate(ctx, post)

	return post, nil
}

func insertPost(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, author Author, in PostInput) (Post, error) {
	var post Post

	err := tx.GetContext(ctx, &post, `INSERT INTO posts (id, author_id, topic, title, body, locale)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, author_id, topic, title, body, locale, reply_count, created_at, updated_at`,
		id, author.ID, in.Topic, in.Title, in.Body, in.Locale)

	post.AuthorHandle = author.Handle

	return post, err
}

// GetPost returns one post.
func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (Post, error) {
	res, err := read(ctx, r, "get_post", func(ctx context.Context) (txResult[Post], error) {
		post, found, err := getOne[Post](ctx, r.store.DB(), postSelect+` WHERE p.id = $1`, id)
		if !found {
			return txResult[Post]{outcome: missing}, err
		}

		return txResult[Post]{value: post}, err
	})

	return res.unwrap(err)
}

// ListPosts returns a page of posts, newest first.
func (r *Repository) ListPosts(ctx context.Context, opts ListOptions) ([]Post, error) {
	var before *time.Time
	if !opts.Before.IsZero() {
		before = &opts.Before
	}

	return read(ctx, r, "list_posts", func(ctx context.Context) ([]Post, error) {
		posts := []Post{}

		err := r.store.DB().SelectContext(ctx, &posts, postSelect+`
 WHERE ($1 = '' OR p.topic = $1)
   AND ($2::timestamptz IS NULL OR p.created_at < $2)
 ORDER BY p.created_at DESC
 LIMIT $3`, opts.Topic, before, opts.limit())

		return posts, err
	})
}

// UpdatePost applies patch to a post written by author.
func (r *Repository) UpdatePost(ctx context.Context, author Author, id uuid.UUID, patch PostPatch) (Post, error) {
	res, err := write(ctx, r, "update_post", func(ctx context.Context, tx *sqlx.Tx) (txResult[Post], error) {
		current, found, err := getOne[Post](ctx, tx, postSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id)
		if err != nil {
			return txResult[Post]{}, err
		}

		switch {
		case !found:
			return txResult[Post]{outcome: missing}, nil
		case current.AuthorID != author.ID:
			return txResult[Post]{outcome: notOwner}, nil
		}

		in := patch.apply(current)
		if err := in.Validate(); err != nil {
			return txResult[Post]{invalid: err}, nil
		}

		post, err := updatePost(ctx, tx, id, in)
		post.AuthorHandle = current.AuthorHandle

		return txResult[Post]{value: post}, err
	})

	post, err := res.unwrap(err)
	if err == nil {
		r.forgetThread(id)
	}

	return post, err
}

func updatePost(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, in PostInput) (Post, error) {
	var post Post

	err := tx.GetContext(ctx, &post, `UPDATE posts
   SET topic = $2, title = $3, body = $4, updated_at = now()
 WHERE id = $1
RETURNING id, author_id, topic, title, body, locale, reply_count, created_at, updated_at`,
		id, in.Topic, in.Title, in.Body)

	return post, err
}

// DeletePost removes a post written by author together with its replies.
func (r *Repository) DeletePost(ctx context.Context, author Author, id uuid.UUID) error {
	o, err := write(ctx, r, "delete_post", func(ctx context.Context, tx *sqlx.Tx) (outcome, error) {
		o, err := ownerOf(ctx, tx, `SELECT author_id FROM posts WHERE id = $1 FOR UPDATE`, id, author)
		if err != nil || o != done {
			return o, err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)

		return done, err
	})
	if err != nil {
		return err
	}

	if o == done {
		r.forgetThread(id)
	}

	return o.err()
}
