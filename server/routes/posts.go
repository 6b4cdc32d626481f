// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"time"

	"codeberg.org/xeoos/xeo/core/forum"
	"codeberg.org/xeoos/xeo/server/request_context"
)

// postList is a page of posts. NextBefore continues the listing.
type postList struct {
	Posts      []forum.Post `json:"posts"`
	NextBefore string       `json:"next_before,omitempty"`
}

func newPostList(posts []forum.Post, limit int) postList {
	list := postList{Posts: posts}
	if list.Posts == nil {
		list.Posts = []forum.Post{}
	}

	if len(posts) > 0 && (limit <= 0 || len(posts) >= limit) {
		list.NextBefore = posts[len(posts)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return list
}

// ListPosts handles GET /api/posts.
func (api *API) ListPosts(w http.ResponseWriter, r *http.Request) error {
	opts, err := listOptions(r)
	if err != nil {
		return err
	}

	posts, err := api.Forum.ListPosts(r.Context(), opts)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, newPostList(posts, opts.Limit))

	return nil
}

// CreatePost handles POST /api/posts.
func (api *API) CreatePost(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	var in forum.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}

	if in.Locale == "" {
		in.Locale = request_context.FromRequest(r).Locale
	}

	post, err := api.Forum.CreatePost(r.Context(), author, in)
	if err != nil {
		return err
	}

	w.Header().Set("Location", "/api/posts/"+post.ID.String())
	writeJSON(w, http.StatusCreated, post)

	return nil
}

// GetPost handles GET /api/posts/{id}. The post comes with its replies.
func (api *API) GetPost(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	thread, err := api.Forum.Thread(r.Context(), id)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, thread)

	return nil
}

// UpdatePost handles PATCH /api/posts/{id}.
func (api *API) UpdatePost(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	var patch forum.PostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		return err
	}

	post, err := api.Forum.UpdatePost(r.Context(), author, id, patch)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, post)

	return nil
}

// DeletePost handles DELETE /api/posts/{id}.
func (api *API) DeletePost(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	if err := api.Forum.DeletePost(r.Context(), author, id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
