// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/config"
	"codeberg.org/xeoos/xeo/core/audit"
	"codeberg.org/xeoos/xeo/core/metrics"
	"codeberg.org/xeoos/xeo/server/request_context"
	"codeberg.org/xeoos/xeo/server/routes"
)

// FallibleHandler is a handler that reports failure by returning an error.
type FallibleHandler = func(w http.ResponseWriter, r *http.Request) error

// CatchError wraps a FallibleHandler with the error boundary of the service.
//
// The handler's output is buffered. If it returns an error, the buffered
// output is discarded and routes.ErrorPage writes a JSON error body instead:
// 401 for routes.UnauthorizedError, the carried status for routes.HTTPError,
// 404/403/422 for forum errors, 503 (retryable) when the database could not
// serve the request and 500 for anything else.
//
// Finally, it logs the completed request via the audit package.
func CatchError(handler FallibleHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := beginUserSpan(r, ctx)
		defer span.End()

		recorder := httptest.NewRecorder()

		ctx.RequestError = handler(recorder, r)

		if ctx.RequestError != nil {
			routes.ErrorPage(w, r)
		} else {
			if recorder.Code == 0 {
				recorder.Code = http.StatusOK
			}

			ctx.StatusCode = recorder.Code
			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			if _, err := recorder.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		}

		finishUserSpan(r, ctx, &span)
	}
}

// CatchStreamError is CatchError for handlers that stream their response,
// such as Server-Sent Events. Output is not buffered, so an error body can
// only be written while nothing has been sent yet.
func CatchStreamError(handler FallibleHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := beginUserSpan(r, ctx)
		defer span.End()

		sw := &streamWriter{ResponseWriter: w}

		ctx.RequestError = handler(sw, r)

		switch {
		case ctx.RequestError != nil && !sw.wroteHeader:
			routes.ErrorPage(w, r)
		case sw.wroteHeader:
			ctx.StatusCode = sw.status
		default:
			ctx.StatusCode = http.StatusOK
		}

		finishUserSpan(r, ctx, &span)
	}
}

func beginUserSpan(r *http.Request, ctx *request_context.RequestContext) audit.Span {
	span := audit.Span{
		Destination: audit.ToUser,
		RequestID:   ctx.RequestID,
		Method:      r.Method,
		URL:         r.URL.String(),
	}

	_ = span.Begin(r.Context())

	return span
}

func finishUserSpan(r *http.Request, ctx *request_context.RequestContext, span *audit.Span) {
	span.End()
	span.StatusCode = ctx.StatusCode
	span.Error = ctx.RequestError

	metrics.HTTPRequests.WithLabelValues(strconv.Itoa(ctx.StatusCode)).Inc()

	if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
		span.Log()
	}
}

// streamWriter records whether the handler has started its response.
type streamWriter struct {
	http.ResponseWriter

	wroteHeader bool
	status      int
}

func (w *streamWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.status = code
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *streamWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer's Flush.
func (w *streamWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
