// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/xeoos/xeo/core/forum"
)

// ListDrafts handles GET /api/drafts. Drafts are private to their author.
func (api *API) ListDrafts(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	drafts, err := api.Forum.ListDrafts(r.Context(), author.ID)
	if err != nil {
		return err
	}

	if drafts == nil {
		drafts = []forum.Draft{}
	}

	writeJSON(w, http.StatusOK, drafts)

	return nil
}

// SaveDraft handles PUT /api/drafts. A body without an id starts a new draft.
func (api *API) SaveDraft(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	var in forum.DraftInput
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}

	draft, err := api.Forum.SaveDraft(r.Context(), author, in)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, draft)

	return nil
}

// DeleteDraft handles DELETE /api/drafts/{id}.
func (api *API) DeleteDraft(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	if err := api.Forum.DeleteDraft(r.Context(), author, id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// PublishDraft handles POST /api/drafts/{id}/publish.
func (api *API) PublishDraft(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	post, err := api.Forum.PublishDraft(r.Context(), author, id)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, post)

	return nil
}
