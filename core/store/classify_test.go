// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassOther},
		{"plain", errors.New("boom"), ClassOther},
		{"canceled", context.Canceled, ClassOther},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ClassOther},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ClassOther},
		{"tx done", sql.ErrTxDone, ClassTransactionConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, ClassTransactionConflict},
		{"deadlock via pq", &pq.Error{Code: "40P01"}, ClassTransactionConflict},
		{"failed transaction wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "25P02"}), ClassTransactionConflict},
		{"no active transaction", &pq.Error{Code: "25P01"}, ClassTransactionConflict},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, ClassConnectionLost},
		{"admin shutdown", &pq.Error{Code: "57P01"}, ClassConnectionLost},
		{"too many connections", &pgconn.PgError{Code: "53300"}, ClassConnectionLost},
		{"bad conn", driver.ErrBadConn, ClassConnectionLost},
		{"conn done", sql.ErrConnDone, ClassConnectionLost},
		{"unexpected eof", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), ClassConnectionLost},
		{"connection reset", fmt.Errorf("write: %w", syscall.ECONNRESET), ClassConnectionLost},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, ClassConnectionLost},
		{"broken pipe", syscall.EPIPE, ClassConnectionLost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.want != ClassOther, IsUnavailable(tt.err))
		})
	}
}

func TestErrorClassString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "other", ClassOther.String())
	assert.Equal(t, "transaction_conflict", ClassTransactionConflict.String())
	assert.Equal(t, "connection_lost", ClassConnectionLost.String())
}
