// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
)

// Translatable is a value that can translate itself using a context.
// Types such as [MsgKey] implement Translatable.
type Translatable interface {
	Tr(ctx context.Context) string
}

// MsgKey is a source message id (msgid) string.
//
// Construct with MsgKey("Title is required.") and call Tr(ctx) to resolve
// using the current locale in ctx. Declaring msgids as MsgKey constants lets
// cmd/i18n_extract find them.
//
// MsgKey should be the original English UI text, not an invented key.
type MsgKey string

// Tr translates this msgid within the current locale.
// It is equivalent to calling [Tr] with the same msgid.
// The ctx may be nil, in which case the base locale is used.
func (s MsgKey) Tr(ctx context.Context) string {
	return Tr(ctx, string(s))
}
