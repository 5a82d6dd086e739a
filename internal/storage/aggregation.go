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

// MentionRow is the raw per-mention data the scoring engine folds into
// aggregates. It is a read projection, never persisted directly.
type MentionRow struct {
	PlaceID   string    `db:"place_id"`
	PostID    string    `db:"post_id"`
	Score     int       `db:"score"`
	Timestamp time.Time `db:"timestamp"`
	Permalink string    `db:"permalink"`
	Hash      string    `db:"content_hash"`
	Length    int       `db:"content_length"`
}

// MentionRowsForCity returns every matched Mention for a city's Places, the
// single read the scoring engine needs to compute both iconic and trending
// scores in one batch.
func (s *Store) MentionRowsForCity(ctx context.Context, cityID string) ([]MentionRow, error) {
	const q = `
SELECT m.place_id, m.post_id, m.score, m."timestamp", m.permalink, m.content_hash, m.content_length
FROM mentions m
WHERE m.city_id = $1 AND m.place_id IS NOT NULL
ORDER BY m.place_id`
	var rows []MentionRow
	if err := s.db.SelectContext(ctx, &rows, q, cityID); err != nil {
		return nil, fmt.Errorf("mention rows for city: %w", err)
	}
	return rows, nil
}

// PlaceIDsForCity lists every Place id in a city, including those with zero
// mentions. A zero-mention place simply produces no aggregation row,
// which UpsertAggregations already satisfies by only writing rows
// scoring computed.
func (s *Store) PlaceIDsForCity(ctx context.Context, cityID string) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM places WHERE city_id = $1`, cityID); err != nil {
		return nil, fmt.Errorf("place ids for city: %w", err)
	}
	return ids, nil
}

// UpsertAggregations writes a city's freshly computed PlaceAggregation
// batch. Each row is upserted individually (ON CONFLICT place_id DO
// UPDATE) so the batch is not one long transaction spanning every place --
// readers always see a per-Place-consistent view even mid-batch.
func (s *Store) UpsertAggregations(ctx context.Context, aggs []PlaceAggregation) error {
	const q = `
INSERT INTO place_aggregations (place_id, iconic_score, trending_score, unique_threads, total_mentions, total_upvotes, mentions_90d, last_seen, top_snippets, computed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (place_id) DO UPDATE SET
	iconic_score = EXCLUDED.iconic_score,
	trending_score = EXCLUDED.trending_score,
	unique_threads = EXCLUDED.unique_threads,
	total_mentions = EXCLUDED.total_mentions,
	total_upvotes = EXCLUDED.total_upvotes,
	mentions_90d = EXCLUDED.mentions_90d,
	last_seen = EXCLUDED.last_seen,
	top_snippets = EXCLUDED.top_snippets,
	computed_at = now()`
	for _, a := range aggs {
		if _, err := s.db.ExecContext(ctx, q, a.PlaceID, a.IconicScore, a.TrendingScore, a.UniqueThreads, a.TotalMentions, a.TotalUpvotes, a.Mentions90d, a.LastSeen, a.TopSnippets); err != nil {
			return fmt.Errorf("upsert aggregation for place %s: %w", a.PlaceID, err)
		}
	}
	return nil
}

// GetAggregation fetches a Place's current aggregation row for the place
// detail endpoint.
func (s *Store) GetAggregation(ctx context.Context, placeID string) (*PlaceAggregation, error) {
	var a PlaceAggregation
	const q = `SELECT place_id, iconic_score, trending_score, unique_threads, total_mentions, total_upvotes, mentions_90d, last_seen, top_snippets, computed_at FROM place_aggregations WHERE place_id = $1`
	if err := s.db.GetContext(ctx, &a, q, placeID); err != nil {
		return nil, nil //nolint:nilerr // no aggregation yet is valid (never-ingested place), not an error
	}
	return &a, nil
}
