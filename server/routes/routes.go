// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes holds the HTTP handlers of the XEO front-end.

Handlers have the signature func(w, r) error and are wrapped by
middleware.CatchError, which renders returned errors as JSON.
*/
package routes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"codeberg.org/xeoos/xeo/core/authenticated"
	"codeberg.org/xeoos/xeo/core/broadcast"
	"codeberg.org/xeoos/xeo/core/forum"
)

// Forum is the part of *forum.Repository the handlers use.
type Forum interface {
	CreatePost(ctx context.Context, author forum.Author, in forum.PostInput) (forum.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (forum.Post, error)
	ListPosts(ctx context.Context, opts forum.ListOptions) ([]forum.Post, error)
	UpdatePost(ctx context.Context, author forum.Author, id uuid.UUID, patch forum.PostPatch) (forum.Post, error)
	DeletePost(ctx context.Context, author forum.Author, id uuid.UUID) error

	CreateReply(ctx context.Context, author forum.Author, postID uuid.UUID, body string) (forum.Reply, error)
	ListReplies(ctx context.Context, postID uuid.UUID) ([]forum.Reply, error)
	DeleteReply(ctx context.Context, author forum.Author, id uuid.UUID) error

	SaveDraft(ctx context.Context, author forum.Author, in forum.DraftInput) (forum.Draft, error)
	ListDrafts(ctx context.Context, authorID uuid.UUID) ([]forum.Draft, error)
	DeleteDraft(ctx context.Context, author forum.Author, id uuid.UUID) error
	PublishDraft(ctx context.Context, author forum.Author, id uuid.UUID) (forum.Post, error)

	GetSettings(ctx context.Context, userID uuid.UUID) (forum.Settings, error)
	UpdateSettings(ctx context.Context, author forum.Author, in forum.SettingsInput) (forum.Settings, error)

	Thread(ctx context.Context, postID uuid.UUID) (forum.Thread, error)
}

// Pinger reports whether the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// API binds the handlers to their collaborators.
type API struct {
	Forum         Forum
	Notifications broadcast.Broadcaster
	Tokens        *authenticated.Validator
	DB            Pinger

	// KeepAlive is the interval of comment lines on notification streams.
	KeepAlive time.Duration
}
