// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/xeoos/xeo/core/metrics"
)

// DefaultStaleAfter is how long a successful probe vouches for the connection.
const DefaultStaleAfter = 30 * time.Second

// Conn is the connection a Monitor probes and repairs. *Store implements it.
type Conn interface {
	PingContext(ctx context.Context) error
	Reconnect(ctx context.Context) error
}

// Monitor tracks when the database was last known to be reachable.
//
// Check probes only when that knowledge is older than the staleness window,
// so a burst of operations costs at most one round trip per window. Racing
// callers may issue one redundant probe.
//
// A nil *Monitor is valid and never probes.
type Monitor struct {
	conn       Conn
	staleAfter time.Duration

	// lastProbe is the UnixNano time of the last successful probe; 0 means never.
	lastProbe atomic.Int64

	now func() time.Time
}

// NewMonitor returns a Monitor for conn. A non-positive staleAfter selects
// DefaultStaleAfter.
func NewMonitor(conn Conn, staleAfter time.Duration) *Monitor {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	return &Monitor{
		conn:       conn,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Check probes the connection if the last successful probe is stale. A
// failed probe triggers a best-effort reconnect. Neither failure is
// returned; the operation that follows surfaces any lasting problem.
func (m *Monitor) Check(ctx context.Context) {
	if m == nil || !m.stale() {
		return
	}

	if err := m.Probe(ctx); err == nil {
		return
	}

	metrics.StoreReconnects.Inc()

	if err := m.conn.Reconnect(ctx); err != nil {
		log.Warn().
			Str("sys", "store").
			Err(err).
			Msg("Reconnect failed")

		return
	}

	log.Info().
		Str("sys", "store").
		Msg("Reconnected to database")
}

// Probe pings the connection unconditionally and records a success.
func (m *Monitor) Probe(ctx context.Context) error {
	if m == nil {
		return nil
	}

	if err := m.conn.PingContext(ctx); err != nil {
		metrics.StoreProbes.WithLabelValues("failure").Inc()

		log.Warn().
			Str("sys", "store").
			Err(err).
			Msg("Connection probe failed")

		return err
	}

	metrics.StoreProbes.WithLabelValues("success").Inc()
	m.lastProbe.Store(m.now().UnixNano())

	return nil
}

// Invalidate forgets the last successful probe so the next Check probes.
func (m *Monitor) Invalidate() {
	if m == nil {
		return
	}

	m.lastProbe.Store(0)
}

// LastProbe returns the time of the last successful probe in UTC, or the zero
// Time.
func (m *Monitor) LastProbe() time.Time {
	if m == nil {
		return time.Time{}
	}

	ns := m.lastProbe.Load()
	if ns == 0 {
		return time.Time{}
	}

	return time.Unix(0, ns).UTC()
}

func (m *Monitor) stale() bool {
	last := m.lastProbe.Load()

	return last == 0 || m.now().Sub(time.Unix(0, last)) > m.staleAfter
}
