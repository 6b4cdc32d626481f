// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP middleware chain of the XEO front-end:
URL normalisation, locale routing, response headers and the error boundary
that turns handler errors into JSON responses.

Route definitions are centralized in (*router.Router).DefineRoutes.
*/
package middleware
