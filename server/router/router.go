// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package router assembles the middleware chain and the route table of the
XEO front-end on top of http.ServeMux.
*/
package router

import (
	"net/http"

	"codeberg.org/xeoos/xeo/server/middleware"
)

// Router wraps http.ServeMux and provides middleware chaining functionality.
type Router struct {
	*http.ServeMux

	middlewares []middleware.Middleware
}

// NewRouter creates a new Router instance.
func NewRouter() *Router {
	return &Router{
		ServeMux: http.NewServeMux(),
	}
}

// Use adds a middleware to the router's chain.
func (router *Router) Use(middleware middleware.Middleware) {
	router.middlewares = append(router.middlewares, middleware)
}

// HandleFallible registers a handler whose errors are rendered by
// middleware.CatchError.
func (router *Router) HandleFallible(pattern string, handler middleware.FallibleHandler) {
	router.HandleFunc(pattern, middleware.CatchError(handler))
}

// HandleStream registers a streaming handler. Errors are rendered only while
// nothing has been written yet.
func (router *Router) HandleStream(pattern string, handler middleware.FallibleHandler) {
	router.HandleFunc(pattern, middleware.CatchStreamError(handler))
}

// runs router.middlewares[i] and every thereafter
func (router *Router) serve(i int, w http.ResponseWriter, r *http.Request) {
	if i < len(router.middlewares) {
		router.middlewares[i](w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			router.serve(i+1, w, r)
		}))
	} else {
		router.ServeMux.ServeHTTP(w, r)
	}
}

// runs all middleware
func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.serve(0, w, r)
}
