// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorClass is the retry-relevant category of a data-access failure.
type ErrorClass int

const (
	// ClassOther covers every failure that is not one of the classes below.
	ClassOther ErrorClass = iota

	// ClassTransactionConflict is a transaction that can no longer proceed:
	// it was already finished, aborted, or lost a serialization race.
	ClassTransactionConflict

	// ClassConnectionLost is a connection that broke or could not be made.
	ClassConnectionLost
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTransactionConflict:
		return "transaction_conflict"
	case ClassConnectionLost:
		return "connection_lost"
	default:
		return "other"
	}
}

// SQLSTATE codes that mark a transaction as unusable.
var conflictCodes = map[string]struct{}{
	"25P01": {}, // no_active_sql_transaction
	"25P02": {}, // in_failed_sql_transaction
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
}

// SQLSTATE codes outside class 08 that mean the server dropped or refused us.
var connectionCodes = map[string]struct{}{
	"57P01": {}, // admin_shutdown
	"57P02": {}, // crash_shutdown
	"57P03": {}, // cannot_connect_now
	"53300": {}, // too_many_connections
}

// Classify maps err onto an ErrorClass. A nil error and context
// cancellation are ClassOther.
func Classify(err error) ErrorClass {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassOther
	}

	if code := sqlState(err); code != "" {
		if _, ok := conflictCodes[code]; ok {
			return ClassTransactionConflict
		}

		if _, ok := connectionCodes[code]; ok || strings.HasPrefix(code, "08") {
			return ClassConnectionLost
		}

		return ClassOther
	}

	if errors.Is(err, sql.ErrTxDone) {
		return ClassTransactionConflict
	}

	var (
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)

	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &connectErr),
		errors.As(err, &netErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return ClassConnectionLost
	}

	return ClassOther
}

// IsUnavailable reports whether err means the database could not serve the
// request, as opposed to rejecting it.
func IsUnavailable(err error) bool {
	return Classify(err) != ClassOther
}

// sqlState extracts the SQLSTATE from either driver's error type.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}
