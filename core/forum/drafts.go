// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"codeberg.org/xeoos/xeo/core/idgen"
	"codeberg.org/xeoos/xeo/i18n"
)

// SaveDraft creates a draft, or overwrites in.ID when it belongs to author.
// A draft pointing at a post may only point at one of author's posts.
func (r *Repository) SaveDraft(ctx context.Context, author Author, in DraftInput) (Draft, error) {
	in.normalize()

	if err := in.Validate(); err != nil {
		return Draft{}, err
	}

	id := idgen.New()
	if in.ID != nil {
		id = *in.ID
	}

	res, err := write(ctx, r, "save_draft", func(ctx context.Context, tx *sqlx.Tx) (txResult[Draft], error) {
		if in.PostID != nil {
			o, err := ownerOf(ctx, tx, `SELECT author_id FROM posts WHERE id = $1`, *in.PostID, author)
			if err != nil || o != done {
				return txResult[Draft]{outcome: o}, err
			}
		}

		if o, err := ensureUser(ctx, tx, author); err != nil || o != done {
			return txResult[Draft]{outcome: o}, err
		}

		draft, found, err := getOne[Draft](ctx, tx, `INSERT INTO drafts (id, author_id, post_id, topic, title, body)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
   SET post_id = EXCLUDED.post_id, topic = EXCLUDED.topic, title = EXCLUDED.title,
       body = EXCLUDED.body, updated_at = now()
 WHERE drafts.author_id = EXCLUDED.author_id
RETURNING `+draftColumns, id, author.ID, in.PostID, in.Topic, in.Title, in.Body)
		if err != nil {
			return txResult[Draft]{}, err
		}

		// The conflict guard refused a draft owned by someone else.
		if !found {
			return txResult[Draft]{outcome: notOwner}, nil
		}

		return txResult[Draft]{value: draft}, nil
	})

	return res.unwrap(err)
}

// ListDrafts returns the drafts of a user, most recently edited first.
func (r *Repository) ListDrafts(ctx context.Context, authorID uuid.UUID) ([]Draft, error) {
	return read(ctx, r, "list_drafts", func(ctx context.Context) ([]Draft, error) {
		drafts := []Draft{}

		err := r.store.DB().SelectContext(ctx, &drafts,
			`SELECT `+draftColumns+` FROM drafts WHERE author_id = $1 ORDER BY updated_at DESC`, authorID)

		return drafts, err
	})
}

// DeleteDraft discards a draft of author.
func (r *Repository) DeleteDraft(ctx context.Context, author Author, id uuid.UUID) error {
	o, err := write(ctx, r, "delete_draft", func(ctx context.Context, tx *sqlx.Tx) (outcome, error) {
		o, err := ownerOf(ctx, tx, `SELECT author_id FROM drafts WHERE id = $1 FOR UPDATE`, id, author)
		if err != nil || o != done {
			return o, err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM drafts WHERE id = $1`, id)

		return done, err
	})
	if err != nil {
		return err
	}

	return o.err()
}

// publishedDraft is what PublishDraft needs after commit.
type publishedDraft struct {
	post    Post
	created bool
}

// PublishDraft turns a draft into a post, or into an edit of the post it
// points at, and discards the draft. Both happen in one transaction.
func (r *Repository) PublishDraft(ctx context.Context, author Author, id uuid.UUID) (Post, error) {
	fallback := i18n.LocaleFrom(ctx)
	postID := idgen.New()

	res, err := write(ctx, r, "publish_draft", func(ctx context.Context, tx *sqlx.Tx) (txResult[publishedDraft], error) {
		draft, found, err := getOne[Draft](ctx, tx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1 FOR UPDATE`, id)

		switch {
		case err != nil:
			return txResult[publishedDraft]{}, err
		case !found:
			return txResult[publishedDraft]{outcome: missing}, nil
		case draft.AuthorID != author.ID:
			return txResult[publishedDraft]{outcome: notOwner}, nil
		}

		in := PostInput{Topic: draft.Topic, Title: draft.Title, Body: draft.Body}
		in.normalize(fallback)

		if err := in.Validate(); err != nil {
			return txResult[publishedDraft]{invalid: err}, nil
		}

		var (
			post    Post
			created = draft.PostID == nil
		)

		if created {
			post, err = insertPost(ctx, tx, postID, author, in)
		} else {
			var o outcome

			o, err = ownerOf(ctx, tx, `SELECT author_id FROM posts WHERE id = $1 FOR UPDATE`, *draft.PostID, author)
			if err != nil || o != done {
				return txResult[publishedDraft]{outcome: o}, err
			}

			post, err = updatePost(ctx, tx, *draft.PostID, in)
			post.AuthorHandle = author.Handle
		}

		if err != nil {
			return txResult[publishedDraft]{}, err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE id = $1`, id); err != nil {
			return txResult[publishedDraft]{}, err
		}

		return txResult[publishedDraft]{value: publishedDraft{post: post, created: created}}, nil
	})

	published, err := res.unwrap(err)
	if err != nil {
		return Post{}, err
	}

	if published.created {
		r.translate(ctx, published.post)
	} else {
		r.forgetThread(published.post.ID)
	}

	return published.post, nil
}
