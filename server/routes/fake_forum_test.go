// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeberg.org/xeoos/xeo/core/forum"
)

// fakeForum keeps posts and replies in memory. Setting err makes every
// call fail with it.
type fakeForum struct {
	mu       sync.Mutex
	posts    map[uuid.UUID]forum.Post
	replies  map[uuid.UUID][]forum.Reply
	drafts   map[uuid.UUID]forum.Draft
	settings map[uuid.UUID]forum.Settings

	lastList forum.ListOptions
	err      error
}

func newFakeForum() *fakeForum {
	return &fakeForum{
		posts:    map[uuid.UUID]forum.Post{},
		replies:  map[uuid.UUID][]forum.Reply{},
		drafts:   map[uuid.UUID]forum.Draft{},
		settings: map[uuid.UUID]forum.Settings{},
	}
}

func (f *fakeForum) addPost(author forum.Author, title string) forum.Post {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	post := forum.Post{
		ID:           uuid.New(),
		AuthorID:     author.ID,
		AuthorHandle: author.Handle,
		Topic:        "general",
		Title:        title,
		Body:         "<p>" + title + "</p>",
		Locale:       "en-US",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.posts[post.ID] = post

	return post
}

func (f *fakeForum) CreatePost(_ context.Context, author forum.Author, in forum.PostInput) (forum.Post, error) {
	if f.err != nil {
		return forum.Post{}, f.err
	}

	if err := in.Validate(); err != nil {
		return forum.Post{}, err
	}

	post := f.addPost(author, in.Title)

	f.mu.Lock()
	defer f.mu.Unlock()

	post.Topic, post.Body, post.Locale = in.Topic, in.Body, in.Locale
	f.posts[post.ID] = post

	return post, nil
}

func (f *fakeForum) GetPost(_ context.Context, id uuid.UUID) (forum.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return forum.Post{}, f.err
	}

	post, ok := f.posts[id]
	if !ok {
		return forum.Post{}, forum.ErrNotFound
	}

	return post, nil
}

func (f *fakeForum) ListPosts(_ context.Context, opts forum.ListOptions) ([]forum.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastList = opts

	if f.err != nil {
		return nil, f.err
	}

	var posts []forum.Post

	for _, p := range f.posts {
		if opts.Topic == "" || p.Topic == opts.Topic {
			posts = append(posts, p)
		}
	}

	slices.SortFunc(posts, func(a, b forum.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return posts, nil
}

func (f *fakeForum) owned(author forum.Author, id uuid.UUID) error {
	post, ok := f.posts[id]

	switch {
	case !ok:
		return forum.ErrNotFound
	case post.AuthorID != author.ID:
		return forum.ErrForbidden
	default:
		return nil
	}
}

func (f *fakeForum) UpdatePost(_ context.Context, author forum.Author, id uuid.UUID, patch forum.PostPatch) (forum.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return forum.Post{}, f.err
	}

	if err := f.owned(author, id); err != nil {
		return forum.Post{}, err
	}

	post := f.posts[id]
	if patch.Title != nil {
		post.Title = *patch.Title
	}

	f.posts[id] = post

	return post, nil
}

func (f *fakeForum) DeletePost(_ context.Context, author forum.Author, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	if err := f.owned(author, id); err != nil {
		return err
	}

	delete(f.posts, id)

	return nil
}

func (f *fakeForum) CreateReply(_ context.Context, author forum.Author, postID uuid.UUID, body string) (forum.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return forum.Reply{}, f.err
	}

	if _, ok := f.posts[postID]; !ok {
		return forum.Reply{}, forum.ErrNotFound
	}

	reply := forum.Reply{
		ID:           uuid.New(),
		PostID:       postID,
		AuthorID:     author.ID,
		AuthorHandle: author.Handle,
		Body:         body,
		CreatedAt:    time.Now().UTC(),
	}
	f.replies[postID] = append(f.replies[postID], reply)

	return reply, nil
}

func (f *fakeForum) ListReplies(_ context.Context, postID uuid.UUID) ([]forum.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	if _, ok := f.posts[postID]; !ok {
		return nil, forum.ErrNotFound
	}

	return f.replies[postID], nil
}

func (f *fakeForum) DeleteReply(context.Context, forum.Author, uuid.UUID) error {
	return forum.ErrNotFound
}

func (f *fakeForum) SaveDraft(_ context.Context, author forum.Author, in forum.DraftInput) (forum.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return forum.Draft{}, f.err
	}

	id := uuid.New()
	if in.ID != nil {
		id = *in.ID
	}

	draft := forum.Draft{ID: id, AuthorID: author.ID, PostID: in.PostID, Topic: in.Topic, Title: in.Title, Body: in.Body}
	f.drafts[id] = draft

	return draft, nil
}

func (f *fakeForum) ListDrafts(_ context.Context, authorID uuid.UUID) ([]forum.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var drafts []forum.Draft

	for _, d := range f.drafts {
		if d.AuthorID == authorID {
			drafts = append(drafts, d)
		}
	}

	return drafts, f.err
}

func (f *fakeForum) DeleteDraft(_ context.Context, author forum.Author, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.drafts[id]
	if !ok || d.AuthorID != author.ID {
		return forum.ErrNotFound
	}

	delete(f.drafts, id)

	return nil
}

func (f *fakeForum) PublishDraft(ctx context.Context, author forum.Author, id uuid.UUID) (forum.Post, error) {
	f.mu.Lock()
	d, ok := f.drafts[id]
	f.mu.Unlock()

	if !ok || d.AuthorID != author.ID {
		return forum.Post{}, forum.ErrNotFound
	}

	post, err := f.CreatePost(ctx, author, forum.PostInput{Topic: d.Topic, Title: d.Title, Body: d.Body, Locale: "en-US"})
	if err != nil {
		return forum.Post{}, err
	}

	_ = f.DeleteDraft(ctx, author, id)

	return post, nil
}

func (f *fakeForum) GetSettings(_ context.Context, userID uuid.UUID) (forum.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.settings[userID]; ok {
		return s, f.err
	}

	return forum.DefaultSettings(userID), f.err
}

func (f *fakeForum) UpdateSettings(ctx context.Context, author forum.Author, in forum.SettingsInput) (forum.Settings, error) {
	if err := in.Validate(); err != nil {
		return forum.Settings{}, err
	}

	s, err := f.GetSettings(ctx, author.ID)
	if err != nil {
		return forum.Settings{}, err
	}

	if in.Locale != nil {
		s.Locale = *in.Locale
	}

	if in.Theme != nil {
		s.Theme = *in.Theme
	}

	if in.EmailNotifications != nil {
		s.EmailNotifications = *in.EmailNotifications
	}

	f.mu.Lock()
	f.settings[author.ID] = s
	f.mu.Unlock()

	return s, nil
}

func (f *fakeForum) Thread(ctx context.Context, postID uuid.UUID) (forum.Thread, error) {
	post, err := f.GetPost(ctx, postID)
	if err != nil {
		return forum.Thread{}, err
	}

	replies, err := f.ListReplies(ctx, postID)
	if err != nil {
		return forum.Thread{}, err
	}

	if replies == nil {
		replies = []forum.Reply{}
	}

	return forum.Thread{Post: post, Replies: replies}, nil
}
