// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/forum"
	"codeberg.org/xeoos/xeo/server/request_context"
	"codeberg.org/xeoos/xeo/server/utils"
)

// maxRequestBody bounds JSON request bodies: a full post plus its metadata.
const maxRequestBody = forum.MaxBodyBytes + 16<<10

var (
	errMissingToken = errors.New("missing bearer token")
	errTrailingData = errors.New("unexpected data after JSON body")
)

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}

// decodeJSON reads one JSON object from the request body into v.
// Unknown fields are rejected with 400 and oversized bodies with 413.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if tooLarge := new(http.MaxBytesError); errors.As(err, &tooLarge) {
			return &HTTPError{Status: http.StatusRequestEntityTooLarge, Msg: MsgTooLarge, Err: err}
		}

		return BadRequest(err)
	}

	if dec.More() {
		return BadRequest(errTrailingData)
	}

	return nil
}

// pathID parses the uuid path variable name. A malformed id cannot name
// anything, so it is reported as 404.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(utils.GetPathVar(r, name))
	if err != nil {
		return uuid.Nil, NotFound(err)
	}

	return id, nil
}

// listOptions reads topic, limit and before from the query string.
func listOptions(r *http.Request) (forum.ListOptions, error) {
	opts := forum.ListOptions{Topic: strings.ToLower(utils.GetQueryParam(r, "topic"))}

	if s := utils.GetQueryParam(r, "limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return opts, BadRequest(err)
		}

		opts.Limit = limit
	}

	if s := utils.GetQueryParam(r, "before"); s != "" {
		before, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return opts, BadRequest(err)
		}

		opts.Before = before
	}

	return opts, nil
}

// currentUser verifies the bearer token of r and returns its author.
// The verified claims are kept in the request context.
func (api *API) currentUser(r *http.Request) (forum.Author, error) {
	rc := request_context.FromRequest(r)

	if rc.User == nil {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return forum.Author{}, NewUnauthorizedError(errMissingToken)
		}

		claims, err := api.Tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			return forum.Author{}, NewUnauthorizedError(err)
		}

		rc.User = &claims
	}

	return forum.Author{ID: rc.User.UserID, Handle: rc.User.Handle}, nil
}
