// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertMention inserts a Mention with ON CONFLICT DO NOTHING on
// (post_id, comment_id, place_id). Returns true if a row
// was actually inserted, false if it was a duplicate -- ingest uses this to
// distinguish "skipped" from genuinely new mentions without treating the
// conflict as an error.
func (s *Store) InsertMention(ctx context.Context, m *Mention) (inserted bool, err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	const q = `
INSERT INTO mentions (id, place_id, city_id, source, post_id, comment_id, score, "timestamp", permalink, content_hash, content_length, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (post_id, COALESCE(comment_id, ''), COALESCE(place_id, '')) DO NOTHING
RETURNING id`
	var returnedID string
	row := s.db.QueryRowContext(ctx, q,
		m.ID, m.PlaceID, m.CityID, m.Source, m.PostID, m.CommentID, m.Score, m.Timestamp, m.Permalink, m.ContentHash, m.ContentLength)
	if err := row.Scan(&returnedID); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return false, nil
		}
		return false, fmt.Errorf("insert mention: %w", err)
	}
	return true, nil
}

// RecentMentionsByPlace returns the latest N mentions for a Place, newest
// first, for the place-detail endpoint's recent-mentions list.
func (s *Store) RecentMentionsByPlace(ctx context.Context, placeID string, limit int) ([]Mention, error) {
	var mentions []Mention
	const q = `
SELECT id, place_id, city_id, source, post_id, comment_id, score, "timestamp", permalink, content_hash, content_length, created_at
FROM mentions WHERE place_id = $1 ORDER BY "timestamp" DESC LIMIT $2`
	if err := s.db.SelectContext(ctx, &mentions, q, placeID, limit); err != nil {
		return nil, fmt.Errorf("recent mentions: %w", err)
	}
	return mentions, nil
}
