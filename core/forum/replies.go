// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"codeberg.org/xeoos/xeo/core/broadcast"
	"codeberg.org/xeoos/xeo/core/idgen"
)

// createdReply is what CreateReply needs to notify after commit.
type createdReply struct {
	reply      Reply
	postAuthor uuid.UUID
	mentioned  []uuid.UUID
}

// CreateReply adds a reply by author to a post and notifies the post
// author and any mentioned users.
func (r *Repository) CreateReply(ctx context.Context, author Author, postID uuid.UUID, body string) (Reply, error) {
	body = strings.TrimSpace(body)

	if err := validateBody(body); err != nil {
		return Reply{}, err
	}

	id := idgen.New()
	handles := Mentions(body)

	res, err := write(ctx, r, "create_reply", func(ctx context.Context, tx *sqlx.Tx) (txResult[createdReply], error) {
		if o, err := ensureUser(ctx, tx, author); err != nil || o != done {
			return txResult[createdReply]{outcome: o}, err
		}

		postAuthor, found, err := getOne[uuid.UUID](ctx, tx, `UPDATE posts
   SET reply_count = reply_count + 1
 WHERE id = $1
RETURNING author_id`, postID)
		if err != nil || !found {
			return txResult[createdReply]{outcome: missing}, err
		}

		var reply Reply

		err = tx.GetContext(ctx, &reply, `INSERT INTO replies (id, post_id, author_id, body)
VALUES ($1, $2, $3, $4)
RETURNING id, post_id, author_id, body, created_at`, id, postID, author.ID, body)
		if err != nil {
			return txResult[createdReply]{}, err
		}

		reply.AuthorHandle = author.Handle

		mentioned, err := lookupHandles(ctx, tx, handles)
		if err != nil {
			return txResult[createdReply]{}, err
		}

		return txResult[createdReply]{value: createdReply{
			reply:      reply,
			postAuthor: postAuthor,
			mentioned:  mentioned,
		}}, nil
	})

	created, err := res.unwrap(err)
	if err != nil {
		return Reply{}, err
	}

	r.forgetThread(postID)
	r.notifyReply(ctx, author, created)

	return created.reply, nil
}

// notifyReply publishes one notification per recipient. The post author
// gets a reply notification; mentioned users get a mention, unless they
// already got the reply. Authors are never notified about themselves.
func (r *Repository) notifyReply(ctx context.Context, author Author, c createdReply) {
	notified := map[uuid.UUID]bool{author.ID: true}
	now := time.Now().UTC()

	send := func(userID uuid.UUID, kind broadcast.Kind) {
		if notified[userID] {
			return
		}

		notified[userID] = true

		replyID := c.reply.ID

		r.publish(ctx, broadcast.Notification{
			ID:        idgen.New(),
			UserID:    userID,
			Kind:      kind,
			PostID:    c.reply.PostID,
			ReplyID:   &replyID,
			ActorID:   author.ID,
			CreatedAt: now,
		})
	}

	send(c.postAuthor, broadcast.KindReply)

	for _, id := range c.mentioned {
		send(id, broadcast.KindMention)
	}
}

// lookupHandles resolves handles to user ids; unknown handles are skipped.
func lookupHandles(ctx context.Context, tx *sqlx.Tx, handles []string) ([]uuid.UUID, error) {
	if len(handles) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT id FROM users WHERE lower(handle) IN (?) ORDER BY handle`, handles)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID

	err = tx.SelectContext(ctx, &ids, tx.Rebind(query), args...)

	return ids, err
}

// ListReplies returns the replies to a post, oldest first.
func (r *Repository) ListReplies(ctx context.Context, postID uuid.UUID) ([]Reply, error) {
	return read(ctx, r, "list_replies", func(ctx context.Context) ([]Reply, error) {
		replies := []Reply{}

		err := r.store.DB().SelectContext(ctx, &replies,
			replySelect+` WHERE r.post_id = $1 ORDER BY r.created_at, r.id`, postID)

		return replies, err
	})
}

type replyOwnerRow struct {
	PostID   uuid.UUID `db:"post_id"`
	AuthorID uuid.UUID `db:"author_id"`
}

// DeleteReply removes a reply written by author.
func (r *Repository) DeleteReply(ctx context.Context, author Author, id uuid.UUID) error {
	res, err := write(ctx, r, "delete_reply", func(ctx context.Context, tx *sqlx.Tx) (txResult[uuid.UUID], error) {
		row, found, err := getOne[replyOwnerRow](ctx, tx,
			`SELECT post_id, author_id FROM replies WHERE id = $1 FOR UPDATE`, id)

		switch {
		case err != nil:
			return txResult[uuid.UUID]{}, err
		case !found:
			return txResult[uuid.UUID]{outcome: missing}, nil
		case row.AuthorID != author.ID:
			return txResult[uuid.UUID]{outcome: notOwner}, nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM replies WHERE id = $1`, id); err != nil {
			return txResult[uuid.UUID]{}, err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET reply_count = GREATEST(reply_count - 1, 0) WHERE id = $1`, row.PostID)

		return txResult[uuid.UUID]{value: row.PostID}, err
	})

	postID, err := res.unwrap(err)
	if err != nil {
		return err
	}

	r.forgetThread(postID)

	return nil
}
