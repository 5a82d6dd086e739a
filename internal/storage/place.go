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

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UpsertPlace inserts or updates a Place keyed on (city_id, name_norm),
// preserving existing address/brand when the incoming value is null.
func (s *Store) UpsertPlace(ctx context.Context, p *Place) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	const q = `
INSERT INTO places (id, city_id, source_native_id, alt_gazetteer_id, name, name_norm, lat, lon, geog, address, cuisine, status, brand, source, aliases, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, ST_SetSRID(ST_MakePoint($8, $7), 4326)::geography, $9, $10, $11, $12, $13, $14, now(), now())
ON CONFLICT (city_id, name_norm) DO UPDATE SET
	source_native_id = COALESCE(EXCLUDED.source_native_id, places.source_native_id),
	alt_gazetteer_id = COALESCE(EXCLUDED.alt_gazetteer_id, places.alt_gazetteer_id),
	name = EXCLUDED.name,
	lat = EXCLUDED.lat,
	lon = EXCLUDED.lon,
	geog = EXCLUDED.geog,
	address = COALESCE(EXCLUDED.address, places.address),
	cuisine = CASE WHEN array_length(EXCLUDED.cuisine, 1) > 0 THEN EXCLUDED.cuisine ELSE places.cuisine END,
	brand = COALESCE(EXCLUDED.brand, places.brand),
	aliases = CASE WHEN array_length(EXCLUDED.aliases, 1) > 0 THEN EXCLUDED.aliases ELSE places.aliases END,
	updated_at = now()
RETURNING id`
	row := s.db.QueryRowContext(ctx, q,
		p.ID, p.CityID, p.SourceNativeID, p.AltGazetteerID, p.Name, p.NameNorm, p.Lat, p.Lon,
		p.Address, pq.Array(p.Cuisine), p.Status, p.Brand, p.Source, pq.Array(p.Aliases))
	if err := row.Scan(&p.ID); err != nil {
		return fmt.Errorf("upsert place %s in city %s: %w", p.NameNorm, p.CityID, err)
	}
	return nil
}

// GetPlace fetches a Place by id.
func (s *Store) GetPlace(ctx context.Context, id string) (*Place, error) {
	var p Place
	const q = `SELECT id, city_id, source_native_id, alt_gazetteer_id, name, name_norm, lat, lon, address, cuisine, status, brand, source, aliases, created_at, updated_at FROM places WHERE id = $1`
	if err := s.db.GetContext(ctx, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("get place: %w", err)
	}
	return &p, nil
}

// ListOpenPlacesByCity serves the instant-coverage unranked mode: base
// Place rows ordered by name.
func (s *Store) ListOpenPlacesByCity(ctx context.Context, cityID string, limit, offset int) ([]Place, int, error) {
	var places []Place
	const q = `SELECT id, city_id, source_native_id, alt_gazetteer_id, name, name_norm, lat, lon, address, cuisine, status, brand, source, aliases, created_at, updated_at
FROM places WHERE city_id = $1 AND status = 'open' ORDER BY name LIMIT $2 OFFSET $3`
	if err := s.db.SelectContext(ctx, &places, q, cityID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list open places: %w", err)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT count(*) FROM places WHERE city_id = $1 AND status = 'open'`, cityID); err != nil {
		return nil, 0, fmt.Errorf("count open places: %w", err)
	}
	return places, total, nil
}

// AliasExactMatch implements match stage 1: name_norm == q OR q
// = ANY(aliases), restricted to status=open, returning the first result.
func (s *Store) AliasExactMatch(ctx context.Context, cityID, q string) (*Place, error) {
	const query = `
SELECT id, city_id, source_native_id, alt_gazetteer_id, name, name_norm, lat, lon, address, cuisine, status, brand, source, aliases, created_at, updated_at
FROM places
WHERE city_id = $1 AND status = 'open' AND (name_norm = $2 OR $2 = ANY(aliases))
ORDER BY name_norm
LIMIT 1`
	var p Place
	if err := s.db.GetContext(ctx, &p, query, cityID, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("alias exact match: %w", err)
	}
	return &p, nil
}

// TrigramMatch implements match stage 2: candidates above threshold,
// ordered by similarity desc, capped at maxCandidates.
func (s *Store) TrigramMatch(ctx context.Context, cityID, q string, threshold float64, maxCandidates int) ([]PlaceCandidate, error) {
	const query = `
SELECT id, city_id, source_native_id, alt_gazetteer_id, name, name_norm, lat, lon, address, cuisine, status, brand, source, aliases, created_at, updated_at,
       similarity(name_norm, $2) AS similarity
FROM places
WHERE city_id = $1 AND status = 'open' AND similarity(name_norm, $2) >= $3
ORDER BY similarity DESC
LIMIT $4`
	var cands []PlaceCandidate
	if err := s.db.SelectContext(ctx, &cands, query, cityID, q, threshold, maxCandidates); err != nil {
		return nil, fmt.Errorf("trigram match: %w", err)
	}
	return cands, nil
}

// GeoAssistMatch implements match stage 3: candidates within radiusMeters
// of (lat, lon) with similarity >= the relaxed threshold, ordered by
// similarity desc then distance asc.
func (s *Store) GeoAssistMatch(ctx context.Context, cityID, q string, lat, lon, radiusMeters, threshold float64, maxCandidates int) ([]PlaceCandidate, error) {
	const query = `
SELECT id, city_id, source_native_id, alt_gazetteer_id, name, name_norm, lat, lon, address, cuisine, status, brand, source, aliases, created_at, updated_at,
       similarity(name_norm, $2) AS similarity,
       ST_Distance(geog, ST_SetSRID(ST_MakePoint($4, $3), 4326)::geography) AS distance_meters
FROM places
WHERE city_id = $1 AND status = 'open'
  AND ST_DWithin(geog, ST_SetSRID(ST_MakePoint($4, $3), 4326)::geography, $5)
  AND similarity(name_norm, $2) >= $6
ORDER BY similarity DESC, distance_meters ASC
LIMIT $7`
	var cands []PlaceCandidate
	if err := s.db.SelectContext(ctx, &cands, query, cityID, q, lat, lon, radiusMeters, threshold, maxCandidates); err != nil {
		return nil, fmt.Errorf("geo-assist match: %w", err)
	}
	return cands, nil
}

// FuzzySearch backs GET /fuzzy: trigram similarity over open
// places, optionally restricted to a city, ordered by similarity desc then
// iconic score desc.
func (s *Store) FuzzySearch(ctx context.Context, q, cityID string, threshold float64, limit int) ([]PlaceCandidate, error) {
	args := []interface{}{q, threshold, limit}
	cityFilter := ""
	if cityID != "" {
		cityFilter = "AND p.city_id = $4"
		args = append(args, cityID)
	}
	query := fmt.Sprintf(`
SELECT p.id, p.city_id, p.source_native_id, p.alt_gazetteer_id, p.name, p.name_norm, p.lat, p.lon, p.address, p.cuisine, p.status, p.brand, p.source, p.aliases, p.created_at, p.updated_at,
       similarity(p.name_norm, $1) AS similarity
FROM places p
LEFT JOIN place_aggregations a ON a.place_id = p.id
WHERE p.status = 'open' AND similarity(p.name_norm, $1) >= $2 %s
ORDER BY similarity DESC, coalesce(a.iconic_score, 0) DESC
LIMIT $3`, cityFilter)
	var cands []PlaceCandidate
	if err := s.db.SelectContext(ctx, &cands, query, args...); err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	return cands, nil
}
