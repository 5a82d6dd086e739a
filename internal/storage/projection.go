// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// allowedViews whitelists the only identifiers that may ever be
// interpolated into a refresh statement.
var allowedViews = map[string]bool{
	ViewIconic:   true,
	ViewTrending: true,
	ViewCuisine:  true,
}

// RefreshProjection refreshes one materialized view. It is serialized by a
// named advisory lock keyed on the view name so two concurrent refresh_mvs
// handlers never race the same view. On a never-populated
// view, REFRESH CONCURRENTLY is rejected by Postgres, so the first refresh
// falls back to a plain (briefly blocking) REFRESH.
func (s *Store) RefreshProjection(ctx context.Context, view string) error {
	if !allowedViews[view] {
		return fmt.Errorf("refresh projection: unknown view %q", view)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refresh tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on the error path

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, view); err != nil {
		return fmt.Errorf("acquire advisory lock for %s: %w", view, err)
	}

	// The savepoint keeps the transaction usable after Postgres rejects
	// CONCURRENTLY on a view that is not populated yet.
	if _, err := tx.ExecContext(ctx, "SAVEPOINT refresh_concurrently"); err != nil {
		return fmt.Errorf("savepoint before refresh of %s: %w", view, err)
	}
	stmt := fmt.Sprintf("REFRESH MATERIALIZED VIEW CONCURRENTLY %s", view)
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		if strings.Contains(err.Error(), "not populated") {
			if _, err2 := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT refresh_concurrently"); err2 != nil {
				return fmt.Errorf("rollback to savepoint for %s: %w", view, err2)
			}
			if _, err2 := tx.ExecContext(ctx, fmt.Sprintf("REFRESH MATERIALIZED VIEW %s", view)); err2 != nil {
				return fmt.Errorf("initial refresh of %s: %w", view, err2)
			}
		} else {
			return fmt.Errorf("refresh %s: %w", view, err)
		}
	}

	var rowCount int
	if err := tx.GetContext(ctx, &rowCount, fmt.Sprintf("SELECT count(*) FROM %s", view)); err != nil {
		return fmt.Errorf("count rows in %s: %w", view, err)
	}

	if err := s.upsertProjectionVersionTx(ctx, tx, view, rowCount); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) upsertProjectionVersionTx(ctx context.Context, tx interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}, view string, rowCount int) error {
	versionHash := uuid.New().String()
	const q = `
INSERT INTO projection_versions (view_name, version_hash, refreshed_at, row_count)
VALUES ($1, $2, now(), $3)
ON CONFLICT (view_name) DO UPDATE SET version_hash = EXCLUDED.version_hash, refreshed_at = now(), row_count = EXCLUDED.row_count`
	if _, err := tx.ExecContext(ctx, q, view, versionHash, rowCount); err != nil {
		return fmt.Errorf("upsert projection version for %s: %w", view, err)
	}
	return nil
}

// GetProjectionVersion powers ETag generation.
func (s *Store) GetProjectionVersion(ctx context.Context, view string) (*ProjectionVersion, error) {
	var v ProjectionVersion
	const q = `SELECT view_name, version_hash, refreshed_at, row_count FROM projection_versions WHERE view_name = $1`
	if err := s.db.GetContext(ctx, &v, q, view); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoProjection
		}
		return nil, fmt.Errorf("get projection version: %w", err)
	}
	return &v, nil
}

// QueryRankedProjection reads a page from mv_ranked_iconic,
// mv_ranked_trending or mv_ranked_cuisine, optionally filtered by cuisine
// (array containment), ordered by rank.
func (s *Store) QueryRankedProjection(ctx context.Context, view, cityID, cuisine string, limit, offset int) ([]RankedRow, int, error) {
	if !allowedViews[view] {
		return nil, 0, fmt.Errorf("query ranked projection: unknown view %q", view)
	}

	args := []interface{}{cityID}
	cuisineFilter := ""
	if cuisine != "" {
		cuisineFilter = "AND cuisine @> ARRAY[$4]::text[]"
	}

	listQ := fmt.Sprintf(`
SELECT place_id, city_id, name, cuisine, address, lat, lon, score, rank, unique_threads, total_mentions, last_seen, top_snippets
FROM %s WHERE city_id = $1 %s ORDER BY rank LIMIT $2 OFFSET $3`, view, cuisineFilter)
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	if cuisine != "" {
		listArgs = append(listArgs, cuisine)
	}

	var rows []RankedRow
	if err := s.db.SelectContext(ctx, &rows, listQ, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("query ranked projection %s: %w", view, err)
	}

	countQ := fmt.Sprintf(`SELECT count(*) FROM %s WHERE city_id = $1 %s`, view, cuisineFilter)
	countArgs := append([]interface{}{}, args...)
	if cuisine != "" {
		countArgs = append(countArgs, cuisine)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countQ, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count ranked projection %s: %w", view, err)
	}

	return rows, total, nil
}

// CuisineFacet is one row of the /cuisines endpoint response.
type CuisineFacet struct {
	Cuisine string `db:"cuisine_tag" json:"cuisine"`
	Count   int    `db:"count" json:"count"`
}

// QueryCuisineFacets returns available cuisine facets and counts from the
// (city, cuisine) projection.
func (s *Store) QueryCuisineFacets(ctx context.Context, cityID string, limit int) ([]CuisineFacet, error) {
	const q = `
SELECT cuisine_tag, count(*) AS count
FROM mv_ranked_cuisine
WHERE city_id = $1
GROUP BY cuisine_tag
ORDER BY count DESC, cuisine_tag
LIMIT $2`
	var facets []CuisineFacet
	if err := s.db.SelectContext(ctx, &facets, q, cityID, limit); err != nil {
		return nil, fmt.Errorf("query cuisine facets: %w", err)
	}
	return facets, nil
}
