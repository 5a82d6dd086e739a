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
	"time"

	"github.com/google/uuid"
)

// UpsertCity inserts or updates a City keyed on (name, country), per
// bootstrap's idempotence contract. Ranked is left
// untouched on conflict -- bootstrap never unranks a city that ingest has
// already promoted.
func (s *Store) UpsertCity(ctx context.Context, c *City) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	const q = `
INSERT INTO cities (id, name, country, lat, lon, bbox, bbox_min_lat, bbox_min_lon, bbox_max_lat, bbox_max_lon, ranked, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, ST_MakeEnvelope($7, $6, $9, $8, 4326)::geography, $6, $7, $8, $9, false, now(), now())
ON CONFLICT (name, country) DO UPDATE SET
	lat = EXCLUDED.lat,
	lon = EXCLUDED.lon,
	bbox = EXCLUDED.bbox,
	bbox_min_lat = EXCLUDED.bbox_min_lat,
	bbox_min_lon = EXCLUDED.bbox_min_lon,
	bbox_max_lat = EXCLUDED.bbox_max_lat,
	bbox_max_lon = EXCLUDED.bbox_max_lon,
	updated_at = now()
RETURNING id, ranked`
	row := s.db.QueryRowContext(ctx, q,
		c.ID, c.Name, c.Country, c.Lat, c.Lon,
		c.BBoxMinLat, c.BBoxMinLon, c.BBoxMaxLat, c.BBoxMaxLon)
	if err := row.Scan(&c.ID, &c.Ranked); err != nil {
		return fmt.Errorf("upsert city %s/%s: %w", c.Name, c.Country, err)
	}
	return nil
}

// MarkCityRanked flips ranked=true once a city has at least one Mention.
func (s *Store) MarkCityRanked(ctx context.Context, cityID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE cities SET ranked = true, updated_at = now() WHERE id = $1`, cityID)
	if err != nil {
		return fmt.Errorf("mark city ranked: %w", err)
	}
	return nil
}

// TouchCityRefreshed stamps last_refreshed_at after refresh_mvs completes.
func (s *Store) TouchCityRefreshed(ctx context.Context, cityID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE cities SET last_refreshed_at = $2, updated_at = now() WHERE id = $1`, cityID, at)
	if err != nil {
		return fmt.Errorf("touch city refreshed: %w", err)
	}
	return nil
}

// ResolveCity implements the city-resolution contract used by every
// endpoint taking a city parameter: try an exact name match,
// then fall back to CityAlias.
func (s *Store) ResolveCity(ctx context.Context, query string) (*City, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, ErrCityNotFound
	}

	var c City
	err := s.db.GetContext(ctx, &c, `SELECT id, name, country, lat, lon, bbox_min_lat, bbox_min_lon, bbox_max_lat, bbox_max_lon, ranked, last_refreshed_at, created_at, updated_at FROM cities WHERE lower(name) = $1`, q)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve city by name: %w", err)
	}

	const aliasQ = `
SELECT c.id, c.name, c.country, c.lat, c.lon, c.bbox_min_lat, c.bbox_min_lon, c.bbox_max_lat, c.bbox_max_lon, c.ranked, c.last_refreshed_at, c.created_at, c.updated_at
FROM cities c JOIN city_aliases a ON a.city_id = c.id
WHERE lower(a.alias) = $1`
	if err := s.db.GetContext(ctx, &c, aliasQ, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("resolve city by alias: %w", err)
	}
	return &c, nil
}

// GetCity fetches a City by id.
func (s *Store) GetCity(ctx context.Context, id string) (*City, error) {
	var c City
	err := s.db.GetContext(ctx, &c, `SELECT id, name, country, lat, lon, bbox_min_lat, bbox_min_lon, bbox_max_lat, bbox_max_lon, ranked, last_refreshed_at, created_at, updated_at FROM cities WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("get city: %w", err)
	}
	return &c, nil
}

// UpsertCityAlias seeds a normalized alias. Alias is
// globally unique under case-fold; a conflicting alias for a different city
// is left untouched rather than stolen, since bootstrap never overwrites
// another city's identity.
func (s *Store) UpsertCityAlias(ctx context.Context, cityID, alias string, isBorough bool) error {
	const q = `
INSERT INTO city_aliases (city_id, alias, is_borough)
VALUES ($1, $2, $3)
ON CONFLICT (lower(alias)) DO NOTHING`
	_, err := s.db.ExecContext(ctx, q, cityID, strings.ToLower(alias), isBorough)
	if err != nil {
		return fmt.Errorf("upsert city alias: %w", err)
	}
	return nil
}

// CityStats is the per-city summary used by the cities listing.
type CityStats struct {
	Places         int        `db:"places"`
	Mentions       int        `db:"mentions"`
	LastRefreshed  *time.Time `db:"last_refreshed"`
}

// ListCities returns every city with its place/mention counts for the
// /cities endpoint.
func (s *Store) ListCities(ctx context.Context) ([]City, map[string]CityStats, error) {
	var cities []City
	err := s.db.SelectContext(ctx, &cities, `SELECT id, name, country, lat, lon, bbox_min_lat, bbox_min_lon, bbox_max_lat, bbox_max_lon, ranked, last_refreshed_at, created_at, updated_at FROM cities ORDER BY name`)
	if err != nil {
		return nil, nil, fmt.Errorf("list cities: %w", err)
	}

	type statRow struct {
		CityID        string     `db:"city_id"`
		Places        int        `db:"places"`
		Mentions      int        `db:"mentions"`
		LastRefreshed *time.Time `db:"last_refreshed"`
	}
	var rows []statRow
	const statQ = `
SELECT c.id AS city_id,
       count(DISTINCT p.id) AS places,
       count(DISTINCT m.id) AS mentions,
       c.last_refreshed_at AS last_refreshed
FROM cities c
LEFT JOIN places p ON p.city_id = c.id
LEFT JOIN mentions m ON m.city_id = c.id
GROUP BY c.id, c.last_refreshed_at`
	if err := s.db.SelectContext(ctx, &rows, statQ); err != nil {
		return nil, nil, fmt.Errorf("list city stats: %w", err)
	}

	stats := make(map[string]CityStats, len(rows))
	for _, r := range rows {
		stats[r.CityID] = CityStats{Places: r.Places, Mentions: r.Mentions, LastRefreshed: r.LastRefreshed}
	}
	return cities, stats, nil
}
