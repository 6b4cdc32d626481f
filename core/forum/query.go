// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	postSelect = `SELECT p.id, p.author_id, u.handle AS author_handle, p.topic, p.title, p.body,
       p.locale, p.reply_count, p.created_at, p.updated_at
  FROM posts p
  JOIN users u ON u.id = p.author_id`

	replySelect = `SELECT r.id, r.post_id, r.author_id, u.handle AS author_handle, r.body, r.created_at
  FROM replies r
  JOIN users u ON u.id = r.author_id`

	draftColumns = `id, author_id, post_id, topic, title, body, updated_at`

	// No row comes back when another user holds the handle.
	ensureUserSQL = `INSERT INTO users (id, handle)
SELECT $1::uuid, $2::text
 WHERE NOT EXISTS (SELECT 1 FROM users WHERE handle = $2::text AND id <> $1::uuid)
ON CONFLICT (id) DO UPDATE SET handle = EXCLUDED.handle
RETURNING id`
)

// txResult carries a domain outcome out of a transaction body, so that
// refusals commit nothing and are not retried.
type txResult[T any] struct {
	value   T
	outcome outcome
	invalid error
}

func (r txResult[T]) unwrap(err error) (T, error) {
	switch {
	case err != nil:
		var zero T

		return zero, err
	case r.invalid != nil:
		return r.value, r.invalid
	default:
		return r.value, r.outcome.err()
	}
}

// getOne scans a single row into a T and reports whether one existed.
func getOne[T any](ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (T, bool, error) {
	var v T

	err := sqlx.GetContext(ctx, q, &v, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return v, false, nil
	}

	if err != nil {
		return v, false, err
	}

	return v, true, nil
}

// ensureUser creates the users row the first time an author writes and
// refreshes its handle afterwards. It reports handleTaken when the handle
// belongs to another user.
func ensureUser(ctx context.Context, tx *sqlx.Tx, author Author) (outcome, error) {
	_, found, err := getOne[uuid.UUID](ctx, tx, ensureUserSQL, author.ID, author.Handle)

	switch {
	case err != nil:
		return done, err
	case !found:
		return handleTaken, nil
	default:
		return done, nil
	}
}

// ownerOf locks row id of table and returns its author, or missing.
func ownerOf(ctx context.Context, tx *sqlx.Tx, query string, id any, author Author) (outcome, error) {
	owner, found, err := getOne[ownerRow](ctx, tx, query, id)
	if err != nil {
		return done, err
	}

	switch {
	case !found:
		return missing, nil
	case owner.AuthorID != author.ID:
		return notOwner, nil
	default:
		return done, nil
	}
}
