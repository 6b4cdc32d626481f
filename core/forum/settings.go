// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const settingsColumns = `user_id, locale, theme, email_notifications, updated_at`

// GetSettings returns the settings of a user, or the defaults when the user
// never saved any.
func (r *Repository) GetSettings(ctx context.Context, userID uuid.UUID) (Settings, error) {
	return read(ctx, r, "get_settings", func(ctx context.Context) (Settings, error) {
		s, found, err := getOne[Settings](ctx, r.store.DB(),
			`SELECT `+settingsColumns+` FROM user_settings WHERE user_id = $1`, userID)
		if !found && err == nil {
			return DefaultSettings(userID), nil
		}

		return s, err
	})
}

// UpdateSettings merges in into the settings of author.
func (r *Repository) UpdateSettings(ctx context.Context, author Author, in SettingsInput) (Settings, error) {
	if err := in.Validate(); err != nil {
		return Settings{}, err
	}

	res, err := write(ctx, r, "update_settings", func(ctx context.Context, tx *sqlx.Tx) (txResult[Settings], error) {
		if o, err := ensureUser(ctx, tx, author); err != nil || o != done {
			return txResult[Settings]{outcome: o}, err
		}

		current, found, err := getOne[Settings](ctx, tx,
			`SELECT `+settingsColumns+` FROM user_settings WHERE user_id = $1 FOR UPDATE`, author.ID)
		if err != nil {
			return txResult[Settings]{}, err
		}

		if !found {
			current = DefaultSettings(author.ID)
		}

		next := in.apply(current)

		var saved Settings

		err = tx.GetContext(ctx, &saved, `INSERT INTO user_settings (user_id, locale, theme, email_notifications)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
   SET locale = EXCLUDED.locale, theme = EXCLUDED.theme,
       email_notifications = EXCLUDED.email_notifications, updated_at = now()
RETURNING `+settingsColumns, author.ID, next.Locale, next.Theme, next.EmailNotifications)

		return txResult[Settings]{value: saved}, err
	})

	return res.unwrap(err)
}
