// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultKeepAlive is used when API.KeepAlive is unset.
const DefaultKeepAlive = 25 * time.Second

// StreamNotifications handles GET /api/notifications/stream as a server-sent event
// stream. Each notification is one "notification" event whose data is its
// JSON encoding. Comment lines keep idle connections open.
func (api *API) StreamNotifications(w http.ResponseWriter, r *http.Request) error {
	author, err := api.currentUser(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	rc := http.NewResponseController(w)

	stream, cancel := api.Notifications.Subscribe(ctx, author.ID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Writes must not be cut by the server's WriteTimeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug().Err(err).Msg("Notification stream keeps the server write deadline")
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	interval := api.KeepAlive
	if interval <= 0 {
		interval = DefaultKeepAlive
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n, ok := <-stream:
			if !ok {
				return nil
			}

			data, err := json.Marshal(n)
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, data); err != nil {
				return err
			}

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return err
			}
		}

		if err := rc.Flush(); err != nil {
			return err
		}
	}
}
