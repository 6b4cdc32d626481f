// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/xeoos/xeo/core/forum"
)

type replyInput struct {
	Body string `json:"body"`
}

// ListReplies handles GET /api/posts/{id}/replies.
func (api *API) ListReplies(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	replies, err := api.Forum.ListReplies(r.Context(), id)
	if err != nil {
		return err
	}

	if replies == nil {
		replies = []forum.Reply{}
	}

	writeJSON(w, http.StatusOK, replies)

	return nil
}

// CreateReply handles POST /api/posts/{id}/replies.
func (api *API) CreateReply(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	var in replyInput
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}

	reply, err := api.Forum.CreateReply(r.Context(), author, id, in.Body)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, reply)

	return nil
}

// DeleteReply handles DELETE /api/replies/{id}.
func (api *API) DeleteReply(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	if err := api.Forum.DeleteReply(r.Context(), author, id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
