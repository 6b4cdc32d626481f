// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/forum"
	"codeberg.org/xeoos/xeo/server/utils"
)

var errNotSVG = errors.New("share images are only served as .svg")

// ShareImage handles GET /og/posts/{file}, where file is "<post id>.svg".
func (api *API) ShareImage(w http.ResponseWriter, r *http.Request) error {
	name, ok := strings.CutSuffix(utils.GetPathVar(r, "file"), ".svg")
	if !ok {
		return NotFound(errNotSVG)
	}

	id, err := uuid.Parse(name)
	if err != nil {
		return NotFound(err)
	}

	post, err := api.Forum.GetPost(r.Context(), id)
	if err != nil {
		return err
	}

	img := forum.RenderShareImage(forum.ShareMetadata(post, ""))

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(img); err != nil {
		log.Debug().Err(err).Msg("Failed to write share image")
	}

	return nil
}
