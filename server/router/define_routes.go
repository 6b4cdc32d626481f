// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"time"

	"codeberg.org/xeoos/xeo/config"
	"codeberg.org/xeoos/xeo/core/metrics"
	"codeberg.org/xeoos/xeo/server/routes"
)

// DefineRoutes registers every route of api.
//
// Literal paths such as /healthz win over the /{locale} wildcard, and
// /og/posts/{file} is more specific than /{locale}/posts/{id}, so the
// patterns below do not conflict.
func (router *Router) DefineRoutes(api *routes.API) {
	router.HandleFallible("GET /healthz", api.Health)

	if config.Global.Metrics.Enabled {
		router.Handle("GET /metrics", metrics.Handler())
	}

	// Posts
	router.HandleFallible("GET /api/posts", api.ListPosts)
	router.HandleFallible("POST /api/posts", api.CreatePost)
	router.HandleFallible("GET /api/posts/{id}", api.GetPost)
	router.HandleFallible("PATCH /api/posts/{id}", api.UpdatePost)
	router.HandleFallible("DELETE /api/posts/{id}", api.DeletePost)

	// Replies
	router.HandleFallible("GET /api/posts/{id}/replies", api.ListReplies)
	router.HandleFallible("POST /api/posts/{id}/replies", api.CreateReply)
	router.HandleFallible("DELETE /api/replies/{id}", api.DeleteReply)

	// Drafts
	router.HandleFallible("GET /api/drafts", api.ListDrafts)
	router.HandleFallible("PUT /api/drafts", api.SaveDraft)
	router.HandleFallible("DELETE /api/drafts/{id}", api.DeleteDraft)
	router.HandleFallible("POST /api/drafts/{id}/publish", api.PublishDraft)

	// Settings
	router.HandleFallible("GET /api/settings", api.GetSettings)
	router.HandleFallible("PUT /api/settings", api.UpdateSettings)

	router.HandleStream("GET /api/notifications/stream", api.StreamNotifications)

	// Link previews
	router.HandleFallible("GET /og/posts/{file}", api.ShareImage)

	// Localized pages. LocaleRouting has already redirected "/" and
	// unprefixed paths to one of these.
	router.HandleFallible("GET /{locale}", api.HomePage)
	router.HandleFallible("GET /{locale}/topic/{topic}", api.TopicPage)
	router.HandleFallible("GET /{locale}/posts/{id}", api.PostPage)

	router.HandleFallible("/", notFound)

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}
}

func notFound(_ http.ResponseWriter, r *http.Request) error {
	return routes.NotFound(nil)
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func registerDebugRoutes(router *Router) {
	err := flightRecorder.Start()
	if err != nil {
		panic(err)
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
