// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"github.com/rs/zerolog/log"
)

var errNoURL = errors.New("store: database URL is empty")

// Config describes how to reach the database and how hard to retry.
type Config struct {
	URL string

	// Driver is the database/sql driver name: "pgx" (default) or "postgres".
	Driver string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// StaleAfter is the connection monitor's staleness window.
	StaleAfter time.Duration

	Retry RetryOptions
	Tx    TxOptions
}

// Store owns the connection pool and the monitor that guards it.
type Store struct {
	mu  sync.RWMutex
	db  *sqlx.DB
	cfg Config

	monitor *Monitor
}

// Open connects to the database described by cfg and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errNoURL
	}

	if cfg.Driver == "" {
		cfg.Driver = "pgx"
	}

	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, cfg: cfg}
	s.monitor = NewMonitor(s, cfg.StaleAfter)

	return s, nil
}

// New wraps an existing pool. Reconnect reopens it using cfg.
func New(db *sqlx.DB, cfg Config) *Store {
	s := &Store{db: db, cfg: cfg}
	s.monitor = NewMonitor(s, cfg.StaleAfter)

	return s
}

func connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// DB returns the current pool. Do not retain it across operations; a
// reconnect replaces it.
func (s *Store) DB() *sqlx.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db
}

// Monitor returns the connection monitor guarding s.
func (s *Store) Monitor() *Monitor {
	return s.monitor
}

// Retry returns the configured retry options.
func (s *Store) Retry() RetryOptions {
	return s.cfg.Retry
}

// PingContext verifies the current pool can reach the database.
func (s *Store) PingContext(ctx context.Context) error {
	return s.DB().PingContext(ctx)
}

// Reconnect opens a fresh pool and swaps it in. The old pool is closed once
// replaced; operations holding it fail and are retried on the new one.
func (s *Store) Reconnect(ctx context.Context) error {
	if s.cfg.URL == "" {
		return errNoURL
	}

	db, err := connect(ctx, s.cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.db
	s.db = db
	s.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Warn().
				Str("sys", "store").
				Err(err).
				Msg("Failed to close replaced pool")
		}
	}

	return nil
}

// Close closes the current pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Close()
}
