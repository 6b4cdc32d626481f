// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package store is the resilient data-access layer.

Every database call goes through [WithRetry] (or [Do]) for single operations
and [SafeTransaction] for units of work. Both retry failed attempts with a
linear delay and consult a [Monitor] so that a stale or broken connection is
probed, and if needed replaced, before the next attempt runs.

	post, err := store.WithRetry(ctx, s.Monitor(), func(ctx context.Context) (Post, error) {
		return getPost(ctx, s.DB(), id)
	}, s.Retry())

[Classify] is the single place that decides whether a failure is a
transaction conflict, a lost connection, or anything else. After the last
retry the original error is returned unchanged, so callers can still match
it with errors.Is and errors.As.
*/
package store
