// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"context"
	"net/http"
	"time"

	"codeberg.org/xeoos/xeo/config"
)

// HealthTimeout bounds the database ping of a health check.
const HealthTimeout = 2 * time.Second

type healthBody struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
}

// Health handles GET /healthz. It fails with 503 while the database does not
// answer a ping.
func (api *API) Health(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), HealthTimeout)
	defer cancel()

	if err := api.DB.PingContext(ctx); err != nil {
		return &HTTPError{Status: http.StatusServiceUnavailable, Msg: MsgUnavailable, Err: err}
	}

	writeJSON(w, http.StatusOK, healthBody{
		Status:   "ok",
		Version:  config.BuildVersion,
		Revision: config.Global.Build.Revision(),
	})

	return nil
}
