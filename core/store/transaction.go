// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// TxOptions bounds one SafeTransaction call.
type TxOptions struct {
	// MaxWait bounds acquiring a connection from the pool.
	MaxWait time.Duration

	// Timeout bounds the transaction from BEGIN to COMMIT.
	Timeout time.Duration

	Isolation sql.IsolationLevel

	RetryOptions
}

// DefaultTxOptions returns a 5s acquire wait, a 10s transaction timeout,
// READ COMMITTED isolation and DefaultRetryOptions.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		MaxWait:      5 * time.Second,
		Timeout:      10 * time.Second,
		Isolation:    sql.LevelReadCommitted,
		RetryOptions: DefaultRetryOptions(),
	}
}

// TxFunc is the body of a transaction. It must not commit or roll back tx.
type TxFunc[T any] func(ctx context.Context, tx *sqlx.Tx) (T, error)

// SafeTransaction runs fn inside a transaction with the retry behaviour of
// WithRetry. Each attempt acquires a connection within MaxWait, begins a
// transaction at Isolation bounded by Timeout, runs fn and commits. Any
// error rolls the attempt back. Omitted opts select the store's configured
// transaction options.
func SafeTransaction[T any](ctx context.Context, s *Store, fn TxFunc[T], opts ...TxOptions) (T, error) {
	o := s.cfg.Tx
	if len(opts) > 0 {
		o = opts[0]
	}

	return WithRetry(ctx, s.monitor, func(ctx context.Context) (T, error) {
		return runTx(ctx, s.DB(), o, fn)
	}, o.RetryOptions)
}

// SafeExec is SafeTransaction for bodies that only report an error.
func SafeExec(ctx context.Context, s *Store, fn func(ctx context.Context, tx *sqlx.Tx) error, opts ...TxOptions) error {
	_, err := SafeTransaction(ctx, s, func(ctx context.Context, tx *sqlx.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, tx)
	}, opts...)

	return err
}

func runTx[T any](ctx context.Context, db *sqlx.DB, o TxOptions, fn TxFunc[T]) (T, error) {
	var zero T

	waitCtx, cancelWait := withOptionalTimeout(ctx, o.MaxWait)
	conn, err := db.Connx(waitCtx)

	cancelWait()

	if err != nil {
		return zero, fmt.Errorf("failed to acquire connection: %w", err)
	}

	defer conn.Close()

	txCtx, cancel := withOptionalTimeout(ctx, o.Timeout)
	defer cancel()

	tx, err := conn.BeginTxx(txCtx, &sql.TxOptions{Isolation: o.Isolation})
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := fn(txCtx, tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().
				Str("sys", "store").
				Err(rbErr).
				Msg("Rollback failed")
		}

		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}
