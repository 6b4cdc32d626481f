// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package forum

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"codeberg.org/xeoos/xeo/i18n"
)

const (
	MaxTitleRunes = 200
	MaxBodyBytes  = 20000
)

// User-facing validation messages.
const (
	MsgTitleRequired   i18n.MsgKey = "Title is required."
	MsgTitleTooLong    i18n.MsgKey = "Title is too long."
	MsgContentRequired i18n.MsgKey = "Content is required."
	MsgContentTooLong  i18n.MsgKey = "Content is too long."
	MsgTopicInvalid    i18n.MsgKey = "Topic is invalid."
	MsgLocaleInvalid   i18n.MsgKey = "Locale is not supported."
	MsgThemeInvalid    i18n.MsgKey = "Theme is not supported."
)

var topicRegexp = regexp.MustCompile(`^[a-z0-9-]{1,64}$`)

// ValidationError rejects a field of a write.
type ValidationError struct {
	Field string
	Msg   i18n.MsgKey
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("forum: invalid %s: %s", e.Field, e.Msg)
}

// Message returns the translated message for the locale in ctx.
func (e *ValidationError) Message(ctx context.Context) string {
	return e.Msg.Tr(ctx)
}

func invalid(field string, msg i18n.MsgKey) error {
	return &ValidationError{Field: field, Msg: msg}
}

// PostInput is the user-supplied part of a post.
type PostInput struct {
	Topic  string      `json:"topic"`
	Title  string      `json:"title"`
	Body   string      `json:"body"`
	Locale i18n.Locale `json:"locale"`
}

// normalize trims the input and fills the locale from fallback.
func (in *PostInput) normalize(fallback i18n.Locale) {
	in.Topic = strings.ToLower(strings.TrimSpace(in.Topic))
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)

	if in.Locale == "" {
		in.Locale = fallback
	}

	if l, ok := i18n.ParseLocale(string(in.Locale)); ok {
		in.Locale = l
	}
}

// Validate checks the input of a post.
func (in PostInput) Validate() error {
	if !topicRegexp.MatchString(in.Topic) {
		return invalid("topic", MsgTopicInvalid)
	}

	if err := validateTitle(in.Title); err != nil {
		return err
	}

	if err := validateBody(in.Body); err != nil {
		return err
	}

	if _, ok := i18n.ParseLocale(string(in.Locale)); !ok {
		return invalid("locale", MsgLocaleInvalid)
	}

	return nil
}

func validateTitle(title string) error {
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		return invalid("title", MsgTitleRequired)
	case n > MaxTitleRunes:
		return invalid("title", MsgTitleTooLong)
	}

	return nil
}

func validateBody(body string) error {
	switch {
	case body == "":
		return invalid("body", MsgContentRequired)
	case len(body) > MaxBodyBytes:
		return invalid("body", MsgContentTooLong)
	}

	return nil
}

// DraftInput is the user-supplied part of a draft. Drafts may be incomplete.
type DraftInput struct {
	// ID selects the draft to overwrite; nil starts a new draft.
	ID     *uuid.UUID `json:"id,omitempty"`
	PostID *uuid.UUID `json:"post_id,omitempty"`
	Topic  string     `json:"topic"`
	Title  string     `json:"title"`
	Body   string     `json:"body"`
}

func (in *DraftInput) normalize() {
	in.Topic = strings.ToLower(strings.TrimSpace(in.Topic))
	in.Title = strings.TrimSpace(in.Title)
}

// Validate checks only the upper bounds; drafts may be empty.
func (in DraftInput) Validate() error {
	if in.Topic != "" && !topicRegexp.MatchString(in.Topic) {
		return invalid("topic", MsgTopicInvalid)
	}

	if utf8.RuneCountInString(in.Title) > MaxTitleRunes {
		return invalid("title", MsgTitleTooLong)
	}

	if len(in.Body) > MaxBodyBytes {
		return invalid("body", MsgContentTooLong)
	}

	return nil
}

// SettingsInput is a partial settings update; nil fields are left unchanged.
type SettingsInput struct {
	Locale             *i18n.Locale `json:"locale,omitempty"`
	Theme              *Theme       `json:"theme,omitempty"`
	EmailNotifications *bool        `json:"email_notifications,omitempty"`
}

// Validate checks the fields that are set.
func (in SettingsInput) Validate() error {
	if in.Locale != nil {
		if _, ok := i18n.ParseLocale(string(*in.Locale)); !ok {
			return invalid("locale", MsgLocaleInvalid)
		}
	}

	if in.Theme != nil {
		switch *in.Theme {
		case ThemeSystem, ThemeLight, ThemeDark:
		default:
			return invalid("theme", MsgThemeInvalid)
		}
	}

	return nil
}

// apply merges the set fields into s.
func (in SettingsInput) apply(s Settings) Settings {
	if in.Locale != nil {
		l, _ := i18n.ParseLocale(string(*in.Locale))
		s.Locale = l
	}

	if in.Theme != nil {
		s.Theme = *in.Theme
	}

	if in.EmailNotifications != nil {
		s.EmailNotifications = *in.EmailNotifications
	}

	return s
}
