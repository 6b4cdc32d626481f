// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package forum is the data layer of the XEO OS forum: posts, replies,
drafts and per-user settings.

Every read goes through [store.WithRetry] and every write through
[store.SafeTransaction], so callers see either a result or the error of
the last attempt. Domain outcomes (missing rows, foreign ownership) are
reported as values from inside those loops and turned into [ErrNotFound],
[ErrForbidden] or [ErrHandleTaken] afterwards, which keeps them out of the
retry budget.
*/
package forum

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/audit"
	"codeberg.org/xeoos/xeo/core/broadcast"
	"codeberg.org/xeoos/xeo/core/cache"
	"codeberg.org/xeoos/xeo/core/store"
	"codeberg.org/xeoos/xeo/core/translator"
	"codeberg.org/xeoos/xeo/i18n"
	"codeberg.org/xeoos/xeo/server/request_context"
)

var (
	ErrNotFound    = errors.New("forum: not found")
	ErrForbidden   = errors.New("forum: not the author")
	ErrHandleTaken = errors.New("forum: handle belongs to another user")
)

// Author identifies the user performing a write.
type Author struct {
	ID     uuid.UUID
	Handle string
}

// Post is a top-level forum post.
type Post struct {
	ID           uuid.UUID   `db:"id"            json:"id"`
	AuthorID     uuid.UUID   `db:"author_id"     json:"author_id"`
	AuthorHandle string      `db:"author_handle" json:"author_handle"`
	Topic        string      `db:"topic"         json:"topic"`
	Title        string      `db:"title"         json:"title"`
	Body         string      `db:"body"          json:"body"`
	Locale       i18n.Locale `db:"locale"        json:"locale"`
	ReplyCount   int         `db:"reply_count"   json:"reply_count"`
	CreatedAt    time.Time   `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"    json:"updated_at"`
}

// Reply answers a post.
type Reply struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	PostID       uuid.UUID `db:"post_id"       json:"post_id"`
	AuthorID     uuid.UUID `db:"author_id"     json:"author_id"`
	AuthorHandle string    `db:"author_handle" json:"author_handle"`
	Body         string    `db:"body"          json:"body"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

// Draft is an unpublished post, optionally an edit of PostID.
type Draft struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	AuthorID  uuid.UUID  `db:"author_id"  json:"author_id"`
	PostID    *uuid.UUID `db:"post_id"    json:"post_id,omitempty"`
	Topic     string     `db:"topic"      json:"topic"`
	Title     string     `db:"title"      json:"title"`
	Body      string     `db:"body"       json:"body"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Settings are a user's preferences.
type Settings struct {
	UserID             uuid.UUID   `db:"user_id"             json:"user_id"`
	Locale             i18n.Locale `db:"locale"              json:"locale"`
	Theme              Theme       `db:"theme"               json:"theme"`
	EmailNotifications bool        `db:"email_notifications" json:"email_notifications"`
	UpdatedAt          time.Time   `db:"updated_at"          json:"updated_at"`
}

// Theme is the colour scheme a user picked.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// DefaultSettings are served to users who never saved any.
func DefaultSettings(userID uuid.UUID) Settings {
	return Settings{
		UserID:             userID,
		Locale:             i18n.DefaultLocale,
		Theme:              ThemeSystem,
		EmailNotifications: true,
	}
}

// Thread is a post with its replies, oldest first.
type Thread struct {
	Post    Post    `json:"post"`
	Replies []Reply `json:"replies"`
}

// Options holds the optional collaborators of a Repository.
type Options struct {
	// Cache holds rendered threads. Nil disables caching.
	Cache *cache.LRU

	// Broadcaster receives reply and mention notifications. Nil disables them.
	Broadcaster broadcast.Broadcaster

	// Translator receives new posts. Nil disables translation.
	Translator *translator.Client
}

// Repository reads and writes forum content.
type Repository struct {
	store       *store.Store
	cache       *cache.LRU
	broadcaster broadcast.Broadcaster
	translator  *translator.Client
}

// New returns a repository over s.
func New(s *store.Store, opts Options) *Repository {
	return &Repository{
		store:       s,
		cache:       opts.Cache,
		broadcaster: opts.Broadcaster,
		translator:  opts.Translator,
	}
}

// outcome reports a domain result from inside a retry loop.
type outcome int

const (
	done outcome = iota
	missing
	notOwner
	handleTaken
)

func (o outcome) err() error {
	switch o {
	case missing:
		return ErrNotFound
	case notOwner:
		return ErrForbidden
	case handleTaken:
		return ErrHandleTaken
	default:
		return nil
	}
}

// read runs op through the retry wrapper inside a database span.
func read[T any](ctx context.Context, r *Repository, name string, op store.Op[T]) (T, error) {
	span := dbSpan(ctx, "READ", name)
	ctx = span.Begin(ctx)

	v, err := store.WithRetry(ctx, r.store.Monitor(), op, r.store.Retry())

	span.Error = err
	span.End()
	span.Log()

	return v, err
}

// write runs fn as a safe transaction inside a database span.
func write[T any](ctx context.Context, r *Repository, name string, fn store.TxFunc[T]) (T, error) {
	span := dbSpan(ctx, "TX", name)
	ctx = span.Begin(ctx)

	v, err := store.SafeTransaction(ctx, r.store, fn)

	span.Error = err
	span.End()
	span.Log()

	return v, err
}

func dbSpan(ctx context.Context, method, name string) *audit.Span {
	return &audit.Span{
		Destination: audit.ToDatabase,
		RequestID:   request_context.FromContext(ctx).RequestID,
		Method:      method,
		URL:         "forum." + name,
	}
}

// publish hands n to the broadcaster; failures are logged.
func (r *Repository) publish(ctx context.Context, n broadcast.Notification) {
	if r.broadcaster == nil {
		return
	}

	if err := r.broadcaster.Publish(ctx, n); err != nil {
		log.Warn().
			Str("sys", "forum").
			Err(err).
			Str("kind", string(n.Kind)).
			Stringer("user_id", n.UserID).
			Msg("Failed to publish notification")
	}
}

// translate submits post to the translation worker without blocking the caller.
func (r *Repository) translate(ctx context.Context, post Post) {
	if !r.translator.Enabled() {
		return
	}

	ctx = context.WithoutCancel(ctx)

	go r.translator.EnqueueBestEffort(ctx, translator.Task{
		PostID:       post.ID,
		SourceLocale: post.Locale,
	})
}
