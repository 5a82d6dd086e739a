// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package storage is the Postgres/PostGIS access layer. It
// exposes atomic upserts for City and Place, conflict-safe Mention insert,
// per-row batched upsert for PlaceAggregation, concurrency-safe
// projection refresh, and the trigram/spatial/time-range indexed reads the
// match engine and Read API need. No caller outside this package writes
// SQL directly.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/logging"
)

// Store wraps a pooled *sqlx.DB. A single Store is constructed at process
// start and passed explicitly to every component that needs storage --
// there is no package-level global, so tests can swap in a container-backed
// Store without touching production wiring.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres, applies the configured pool limits, and pings
// before returning so startup fails fast on a bad DSN.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
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

	logging.Ctx(ctx).Info().Msg("connected to postgres")
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies connectivity for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Stats exposes sql.DBStats for the deep health check.
func (s *Store) Stats() (open, inUse, idle int) {
	st := s.db.Stats()
	return st.OpenConnections, st.InUse, st.Idle
}

// now is an indirection over time.Now. No code in this package calls it
// (queries take their timestamps from Postgres's now()), and no test
// overrides it.
var now = time.Now
