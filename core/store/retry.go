// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"codeberg.org/xeoos/xeo/core/metrics"
)

// RetryOptions bounds the retry loop of WithRetry and SafeTransaction.
type RetryOptions struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Delay is the base wait; retry n waits Delay*n. Zero disables waiting.
	Delay time.Duration
}

// DefaultRetryOptions returns two retries with a one second base delay.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{MaxRetries: 2, Delay: time.Second}
}

// backoff returns a fresh linear schedule capped at MaxRetries.
func (o RetryOptions) backoff() retry.Backoff {
	var n time.Duration

	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		n++

		return o.Delay * n, false
	})

	return retry.WithMaxRetries(uint64(max(o.MaxRetries, 0)), linear)
}

// Op is a unit of data access that yields a value.
type Op[T any] func(ctx context.Context) (T, error)

// WithRetry runs op until it succeeds or the retries in opts are used up.
// Omitted opts select DefaultRetryOptions.
//
// Before the first attempt, and before any attempt that follows a
// transaction conflict or a lost connection, m checks the connection. Every
// failure is retried; after the last one its error is returned unchanged.
// Cancelling ctx stops the loop with ctx.Err().
func WithRetry[T any](ctx context.Context, m *Monitor, op Op[T], opts ...RetryOptions) (T, error) {
	o := DefaultRetryOptions()
	if len(opts) > 0 {
		o = opts[0]
	}

	var (
		result  T
		lastErr error
		attempt int
		check   = true
	)

	err := retry.Do(ctx, o.backoff(), func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		attempt++

		if check {
			m.Check(ctx)
		}

		v, err := op(ctx)
		if err == nil {
			metrics.StoreAttempts.WithLabelValues("ok").Inc()

			result = v

			return nil
		}

		class := Classify(err)
		metrics.StoreAttempts.WithLabelValues(class.String()).Inc()

		lastErr = err

		check = class != ClassOther
		if check {
			m.Invalidate()
		}

		// The caller gave up; another attempt would fail the same way.
		if ctx.Err() != nil {
			return err
		}

		log.Warn().
			Str("sys", "store").
			Err(err).
			Int("attempt", attempt).
			Int("max_retries", o.MaxRetries).
			Stringer("class", class).
			Msg("Data access attempt failed")

		return retry.RetryableError(err)
	})
	if err != nil {
		if attempt > o.MaxRetries && lastErr != nil && ctx.Err() == nil {
			metrics.StoreRetriesExhausted.Inc()

			log.Error().
				Str("sys", "store").
				Err(lastErr).
				Int("attempts", attempt).
				Msg("Data access failed after all retries")

			err = lastErr
		}

		var zero T

		return zero, err
	}

	return result, nil
}

// Do is WithRetry for operations that only report an error.
func Do(ctx context.Context, m *Monitor, fn func(ctx context.Context) error, opts ...RetryOptions) error {
	_, err := WithRetry(ctx, m, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)

	return err
}
