// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build integration

/*
To run these tests, specify `-tags=integration` and point
XEO_TEST_DATABASE_URL at a disposable PostgreSQL database.
*/
package forum

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/xeoos/xeo/core/broadcast"
	"codeberg.org/xeoos/xeo/core/cache"
	"codeberg.org/xeoos/xeo/core/store"
	"codeberg.org/xeoos/xeo/i18n"
)

func newIntegrationRepo(t *testing.T) (*Repository, *broadcast.Hub) {
	t.Helper()

	url := os.Getenv("XEO_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("XEO_TEST_DATABASE_URL is not set")
	}

	s, err := store.Open(t.Context(), store.Config{
		URL:        url,
		StaleAfter: store.DefaultStaleAfter,
		Retry:      store.RetryOptions{MaxRetries: 2, Delay: 10 * time.Millisecond},
		Tx:         store.DefaultTxOptions(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(t.Context()))

	c, err := cache.New(16, time.Minute, true)
	require.NoError(t, err)

	hub := broadcast.NewHub()

	return New(s, Options{Cache: c, Broadcaster: hub}), hub
}

func newAuthor(handle string) Author {
	id := uuid.New()

	return Author{ID: id, Handle: handle + "_" + id.String()[:8]}
}

func TestIntegration_PostLifecycle(t *testing.T) {
	r, hub := newIntegrationRepo(t)
	ctx := i18n.WithLocale(t.Context(), i18n.FrFR)

	alice := newAuthor("alice")
	bob := newAuthor("bob")

	post, err := r.CreatePost(ctx, alice, PostInput{Topic: "general", Title: "Bonjour", Body: "<p>Salut</p>"})
	require.NoError(t, err)
	assert.Equal(t, i18n.FrFR, post.Locale, "locale defaults to the request locale")
	assert.Equal(t, alice.Handle, post.AuthorHandle)

	got, err := r.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, got.Title)

	aliceInbox, cancel := hub.Subscribe(ctx, alice.ID)
	t.Cleanup(cancel)

	reply, err := r.CreateReply(ctx, bob, post.ID, "Hello @"+alice.Handle)
	require.NoError(t, err)

	select {
	case n := <-aliceInbox:
		assert.Equal(t, broadcast.KindReply, n.Kind)
		assert.Equal(t, bob.ID, n.ActorID)
	case <-time.After(time.Second):
		t.Fatal("no reply notification")
	}

	thread, err := r.Thread(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, thread.Post.ReplyCount)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, reply.ID, thread.Replies[0].ID)

	title := "Bonjour à tous"

	_, err = r.UpdatePost(ctx, bob, post.ID, PostPatch{Title: &title})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := r.UpdatePost(ctx, alice, post.ID, PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	thread, err = r.Thread(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, title, thread.Post.Title, "writes invalidate the cached thread")

	require.ErrorIs(t, r.DeleteReply(ctx, alice, reply.ID), ErrForbidden)
	require.NoError(t, r.DeleteReply(ctx, bob, reply.ID))
	require.ErrorIs(t, r.DeleteReply(ctx, bob, reply.ID), ErrNotFound)

	require.NoError(t, r.DeletePost(ctx, alice, post.ID))

	_, err = r.GetPost(ctx, post.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = r.CreateReply(ctx, bob, post.ID, "too late")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIntegration_Drafts(t *testing.T) {
	r, _ := newIntegrationRepo(t)
	ctx := t.Context()

	carol := newAuthor("carol")
	dave := newAuthor("dave")

	draft, err := r.SaveDraft(ctx, carol, DraftInput{Topic: "ideas", Title: "Half"})
	require.NoError(t, err)

	_, err = r.PublishDraft(ctx, carol, draft.ID)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "body", verr.Field)

	_, err = r.SaveDraft(ctx, dave, DraftInput{ID: &draft.ID, Title: "Stolen"})
	require.ErrorIs(t, err, ErrForbidden)

	draft, err = r.SaveDraft(ctx, carol, DraftInput{ID: &draft.ID, Topic: "ideas", Title: "Whole", Body: "Done."})
	require.NoError(t, err)

	drafts, err := r.ListDrafts(ctx, carol.ID)
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	post, err := r.PublishDraft(ctx, carol, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Whole", post.Title)

	drafts, err = r.ListDrafts(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	posts, err := r.ListPosts(ctx, ListOptions{Topic: "ideas", Limit: 50})
	require.NoError(t, err)
	assert.NotEmpty(t, posts)
}

func TestIntegration_Settings(t *testing.T) {
	r, _ := newIntegrationRepo(t)
	ctx := t.Context()

	erin := newAuthor("erin")

	s, err := r.GetSettings(ctx, erin.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(erin.ID), s)

	dark := ThemeDark

	s, err = r.UpdateSettings(ctx, erin, SettingsInput{Theme: &dark})
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, s.Theme)
	assert.Equal(t, i18n.DefaultLocale, s.Locale)

	s, err = r.GetSettings(ctx, erin.ID)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, s.Theme)
}

func TestIntegration_Handles(t *testing.T) {
	r, _ := newIntegrationRepo(t)
	ctx := t.Context()

	gina := newAuthor("gina")

	_, err := r.CreatePost(ctx, gina, PostInput{Topic: "general", Title: "First", Body: "hi"})
	require.NoError(t, err)

	impostor := Author{ID: uuid.New(), Handle: gina.Handle}

	_, err = r.CreatePost(ctx, impostor, PostInput{Topic: "general", Title: "Mine", Body: "hi"})
	require.ErrorIs(t, err, ErrHandleTaken)

	_, err = r.UpdateSettings(ctx, impostor, SettingsInput{})
	require.ErrorIs(t, err, ErrHandleTaken)

	renamed := Author{ID: gina.ID, Handle: "regina_" + gina.ID.String()[:8]}

	post, err := r.CreatePost(ctx, renamed, PostInput{Topic: "general", Title: "Renamed", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, renamed.Handle, post.AuthorHandle)

	got, err := r.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, renamed.Handle, got.AuthorHandle, "the stored handle follows the token")

	// The freed handle can now be claimed.
	post, err = r.CreatePost(ctx, impostor, PostInput{Topic: "general", Title: "Mine", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, impostor.ID, post.AuthorID)
}
