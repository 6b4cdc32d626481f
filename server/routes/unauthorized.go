// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

// UnauthorizedError signals that a request needs a valid bearer token.
//
// The error handling middleware turns it into 401 Unauthorized with a
// WWW-Authenticate challenge.
type UnauthorizedError struct {
	Err error
}

func (e *UnauthorizedError) Error() string {
	if e.Err != nil {
		return "unauthorized: " + e.Err.Error()
	}

	return "unauthorized"
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

// NewUnauthorizedError wraps the reason a request was not authenticated.
func NewUnauthorizedError(err error) error {
	return &UnauthorizedError{Err: err}
}
