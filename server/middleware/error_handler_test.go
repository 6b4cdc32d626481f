// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/xeoos/xeo/core/forum"
	"codeberg.org/xeoos/xeo/server/request_context"
	"codeberg.org/xeoos/xeo/server/routes"
)

// createTestRequest creates a test HTTP request with request context.
func createTestRequest(t *testing.T) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)

	return req.WithContext(request_context.WithRequestContext(req.Context(), req))
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) routes.ErrorBody {
	t.Helper()

	var body routes.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	return body
}

func TestCatchError_Success(t *testing.T) {
	t.Parallel()

	handler := CatchError(func(w http.ResponseWriter, _ *http.Request) error {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, err := w.Write([]byte(`{"status":"created"}`))

		return err
	})

	req := createTestRequest(t)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"status":"created"}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	ctx := request_context.FromRequest(req)
	assert.NoError(t, ctx.RequestError)
	assert.Equal(t, http.StatusCreated, ctx.StatusCode)
}

func TestCatchError_MapsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		status    int
		message   string
		field     string
		retryable bool
	}{
		{
			name:      "unknown error",
			err:       errors.New("test handler error"),
			status:    http.StatusInternalServerError,
			message:   string(routes.MsgInternal),
			retryable: true,
		},
		{
			name:      "database unavailable",
			err:       fmt.Errorf("forum.posts: %w", driver.ErrBadConn),
			status:    http.StatusServiceUnavailable,
			message:   string(routes.MsgUnavailable),
			retryable: true,
		},
		{
			name:    "not found",
			err:     fmt.Errorf("get post: %w", forum.ErrNotFound),
			status:  http.StatusNotFound,
			message: string(routes.MsgNotFound),
		},
		{
			name:    "not the author",
			err:     forum.ErrForbidden,
			status:  http.StatusForbidden,
			message: string(routes.MsgForbidden),
		},
		{
			name:    "validation",
			err:     &forum.ValidationError{Field: "title", Msg: forum.MsgTitleRequired},
			status:  http.StatusUnprocessableEntity,
			message: string(forum.MsgTitleRequired),
			field:   "title",
		},
		{
			name:    "bad request",
			err:     routes.BadRequest(errors.New("unexpected EOF")),
			status:  http.StatusBadRequest,
			message: string(routes.MsgBadRequest),
		},
		{
			name:    "unauthorized",
			err:     routes.NewUnauthorizedError(nil),
			status:  http.StatusUnauthorized,
			message: string(routes.MsgUnauthorized),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := CatchError(func(w http.ResponseWriter, _ *http.Request) error {
				_, _ = w.Write([]byte("partial output that must be discarded"))

				return tt.err
			})

			req := createTestRequest(t)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

			body := decodeErrorBody(t, rr)
			assert.Equal(t, tt.message, body.Error)
			assert.Equal(t, tt.field, body.Field)
			assert.Equal(t, tt.retryable, body.Retryable)

			ctx := request_context.FromRequest(req)
			assert.Equal(t, ctx.RequestID, body.RequestID)
			assert.ErrorIs(t, ctx.RequestError, tt.err)
			assert.Equal(t, tt.status, ctx.StatusCode)
		})
	}
}

func TestCatchError_UnauthorizedChallenge(t *testing.T) {
	t.Parallel()

	handler := CatchError(func(http.ResponseWriter, *http.Request) error {
		return routes.NewUnauthorizedError(errors.New("missing bearer token"))
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, createTestRequest(t))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestCatchStreamError(t *testing.T) {
	t.Parallel()

	t.Run("error before the stream starts", func(t *testing.T) {
		t.Parallel()

		handler := CatchStreamError(func(http.ResponseWriter, *http.Request) error {
			return routes.NewUnauthorizedError(nil)
		})

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, createTestRequest(t))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, string(routes.MsgUnauthorized), decodeErrorBody(t, rr).Error)
	})

	t.Run("error after the stream starts", func(t *testing.T) {
		t.Parallel()

		handler := CatchStreamError(func(w http.ResponseWriter, _ *http.Request) error {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = w.Write([]byte(": ok\n\n"))
			require.NoError(t, http.NewResponseController(w).Flush())

			return errors.New("client went away")
		})

		req := createTestRequest(t)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, ": ok\n\n", rr.Body.String())
		assert.True(t, rr.Flushed)
		assert.Equal(t, http.StatusOK, request_context.FromRequest(req).StatusCode)
	})
}
