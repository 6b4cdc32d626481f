// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"codeberg.org/xeoos/xeo/config"
	"codeberg.org/xeoos/xeo/server/middleware"
	"codeberg.org/xeoos/xeo/server/middleware/limiter"
	"codeberg.org/xeoos/xeo/server/middleware/set_request_context"
)

// RegisterMiddleware installs the middleware chain.
func (router *Router) RegisterMiddleware() {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                // collapse slashes before anything reads the path
	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.LocaleRouting)               // redirects unprefixed page paths
	router.Use(middleware.SetResponseHeaders)          // all responses need this

	if config.Global.Limiter.Enabled {
		router.Use(limiter.Evaluate)
	}
}
