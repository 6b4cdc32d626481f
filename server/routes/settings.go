// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/xeoos/xeo/core/forum"
)

// GetSettings handles GET /api/settings.
func (api *API) GetSettings(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	settings, err := api.Forum.GetSettings(r.Context(), author.ID)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, settings)

	return nil
}

// UpdateSettings handles PUT /api/settings. Omitted fields are kept.
func (api *API) UpdateSettings(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	var in forum.SettingsInput
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}

	settings, err := api.Forum.UpdateSettings(r.Context(), author, in)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, settings)

	return nil
}
