// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package storage

import (
	"context"
	"fmt"
	"time"
)

// UpsertSource seeds a subreddit-to-city mapping from config, upserting by
// source name and marking it active.
func (s *Store) UpsertSource(ctx context.Context, name, cityID string) error {
	const q = `
INSERT INTO sources (name, city_id, is_active, total_posts)
VALUES ($1, $2, true, 0)
ON CONFLICT (name) DO UPDATE SET city_id = EXCLUDED.city_id, is_active = true`
	if _, err := s.db.ExecContext(ctx, q, name, cityID); err != nil {
		return fmt.Errorf("upsert source %s: %w", name, err)
	}
	return nil
}

// ListActiveSourcesByCity returns a city's active sources for ingest.
func (s *Store) ListActiveSourcesByCity(ctx context.Context, cityID string) ([]Source, error) {
	var sources []Source
	const q = `SELECT name, city_id, is_active, last_sync, total_posts FROM sources WHERE city_id = $1 AND is_active = true`
	if err := s.db.SelectContext(ctx, &sources, q, cityID); err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}
	return sources, nil
}

// RecordSourceSync stamps last_sync and increments total_posts after a
// source is successfully polled.
func (s *Store) RecordSourceSync(ctx context.Context, name string, postsFetched int, at time.Time) error {
	const q = `UPDATE sources SET last_sync = $2, total_posts = total_posts + $3 WHERE name = $1`
	if _, err := s.db.ExecContext(ctx, q, name, at, postsFetched); err != nil {
		return fmt.Errorf("record source sync for %s: %w", name, err)
	}
	return nil
}
