// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"codeberg.org/xeoos/xeo/core/forum"
	"codeberg.org/xeoos/xeo/core/store"
	"codeberg.org/xeoos/xeo/i18n"
	"codeberg.org/xeoos/xeo/server/request_context"
)

// User-facing error messages.
const (
	MsgUnavailable  i18n.MsgKey = "The service is temporarily unavailable. Please retry shortly."
	MsgInternal     i18n.MsgKey = "Something went wrong."
	MsgNotFound     i18n.MsgKey = "Not found."
	MsgForbidden    i18n.MsgKey = "You can only change your own content."
	MsgUnauthorized i18n.MsgKey = "Authentication required."
	MsgBadRequest   i18n.MsgKey = "Invalid request body."
	MsgTooMany      i18n.MsgKey = "Too many requests. Please slow down."
	MsgTooLarge     i18n.MsgKey = "The request body is too large."
	MsgHandleTaken  i18n.MsgKey = "This handle belongs to another account."
)

// HTTPError is an error with a known status and a translatable message.
type HTTPError struct {
	Status int
	Msg    i18n.MsgKey
	Field  string
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Msg, e.Err)
	}

	return fmt.Sprintf("%d %s", e.Status, e.Msg)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// BadRequest wraps err as a 400 response.
func BadRequest(err error) error {
	return &HTTPError{Status: http.StatusBadRequest, Msg: MsgBadRequest, Err: err}
}

// NotFound is a 404 response for err.
func NotFound(err error) error {
	return &HTTPError{Status: http.StatusNotFound, Msg: MsgNotFound, Err: err}
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"request_id,omitempty"`
}

// Describe maps err to a status code and a body translated for the locale
// in ctx.
//
// Errors the database could not serve become 503 and are marked retryable;
// unknown errors become 500.
func Describe(ctx context.Context, err error) (int, ErrorBody) {
	var (
		unauthorized *UnauthorizedError
		httpErr      *HTTPError
		invalid      *forum.ValidationError
	)

	switch {
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, ErrorBody{Error: MsgUnauthorized.Tr(ctx)}
	case errors.As(err, &httpErr):
		return httpErr.Status, ErrorBody{
			Error:     httpErr.Msg.Tr(ctx),
			Field:     httpErr.Field,
			Retryable: httpErr.Status == http.StatusServiceUnavailable || httpErr.Status == http.StatusTooManyRequests,
		}
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, ErrorBody{Error: invalid.Message(ctx), Field: invalid.Field}
	case errors.Is(err, forum.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: MsgNotFound.Tr(ctx)}
	case errors.Is(err, forum.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Error: MsgForbidden.Tr(ctx)}
	case errors.Is(err, forum.ErrHandleTaken):
		return http.StatusConflict, ErrorBody{Error: MsgHandleTaken.Tr(ctx), Field: "handle"}
	case store.IsUnavailable(err):
		return http.StatusServiceUnavailable, ErrorBody{Error: MsgUnavailable.Tr(ctx), Retryable: true}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: MsgInternal.Tr(ctx), Retryable: true}
	}
}

// ErrorPage renders the JSON error body for the request's RequestError and
// records the resulting status in the request context.
func ErrorPage(w http.ResponseWriter, r *http.Request) {
	rc := request_context.FromRequest(r)

	status, body := Describe(r.Context(), rc.RequestError)
	body.RequestID = rc.RequestID
	rc.StatusCode = status

	w.Header().Set("Cache-Control", "no-store")

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="xeo"`)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}

	writeJSON(w, status, body)
}
