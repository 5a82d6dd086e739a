// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package storage

import (
	"context"
	"fmt"
)

// schema is applied idempotently (IF NOT EXISTS throughout) so Migrate is
// safe to run on every process start, matching bootstrap's own
// safe-to-re-run contract.
const schema = `
CREATE EXTENSION IF NOT EXISTS postgis;
CREATE EXTENSION IF NOT EXISTS pg_trgm;
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

CREATE TABLE IF NOT EXISTS cities (
	id                text PRIMARY KEY,
	name              text NOT NULL,
	country           text NOT NULL,
	lat               double precision NOT NULL,
	lon               double precision NOT NULL,
	bbox              geography(Polygon, 4326) NOT NULL,
	bbox_min_lat      double precision NOT NULL,
	bbox_min_lon      double precision NOT NULL,
	bbox_max_lat      double precision NOT NULL,
	bbox_max_lon      double precision NOT NULL,
	ranked            boolean NOT NULL DEFAULT false,
	last_refreshed_at timestamptz,
	created_at        timestamptz NOT NULL DEFAULT now(),
	updated_at        timestamptz NOT NULL DEFAULT now(),
	UNIQUE (name, country)
);
CREATE INDEX IF NOT EXISTS idx_cities_name ON cities (name);
CREATE INDEX IF NOT EXISTS idx_cities_bbox ON cities USING gist (bbox);

CREATE TABLE IF NOT EXISTS city_aliases (
	city_id    text NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
	alias      text NOT NULL,
	is_borough boolean NOT NULL DEFAULT false
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_city_aliases_alias ON city_aliases (lower(alias));

CREATE TABLE IF NOT EXISTS places (
	id               text PRIMARY KEY,
	city_id          text NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
	source_native_id text,
	alt_gazetteer_id text,
	name             text NOT NULL,
	name_norm        text NOT NULL,
	lat              double precision NOT NULL,
	lon              double precision NOT NULL,
	geog             geography(Point, 4326) NOT NULL,
	address          text,
	cuisine          text[] NOT NULL DEFAULT '{}',
	status           text NOT NULL DEFAULT 'open',
	brand            text,
	source           text NOT NULL,
	aliases          text[] NOT NULL DEFAULT '{}',
	created_at       timestamptz NOT NULL DEFAULT now(),
	updated_at       timestamptz NOT NULL DEFAULT now(),
	UNIQUE (city_id, name_norm)
);
CREATE INDEX IF NOT EXISTS idx_places_city ON places (city_id);
CREATE INDEX IF NOT EXISTS idx_places_city_open ON places (city_id, status) WHERE status = 'open';
CREATE INDEX IF NOT EXISTS idx_places_source_native_id ON places (source_native_id) WHERE source_native_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_places_name_norm_trgm ON places USING gin (name_norm gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_places_cuisine ON places USING gin (cuisine);
CREATE INDEX IF NOT EXISTS idx_places_geog ON places USING gist (geog);

CREATE TABLE IF NOT EXISTS mentions (
	id             text PRIMARY KEY,
	place_id       text REFERENCES places(id) ON DELETE CASCADE,
	city_id        text NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
	source         text NOT NULL,
	post_id        text NOT NULL,
	comment_id     text,
	score          integer NOT NULL DEFAULT 0,
	"timestamp"    timestamptz NOT NULL,
	permalink      text NOT NULL,
	content_hash   text NOT NULL,
	content_length integer NOT NULL,
	created_at     timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_mentions_dedup
	ON mentions (post_id, COALESCE(comment_id, ''), COALESCE(place_id, ''));
CREATE INDEX IF NOT EXISTS idx_mentions_place_ts ON mentions (place_id, "timestamp" DESC);
CREATE INDEX IF NOT EXISTS idx_mentions_ts_brin ON mentions USING brin ("timestamp");

CREATE TABLE IF NOT EXISTS place_aggregations (
	place_id       text PRIMARY KEY REFERENCES places(id) ON DELETE CASCADE,
	iconic_score   double precision NOT NULL DEFAULT 0,
	trending_score double precision NOT NULL DEFAULT 0,
	unique_threads integer NOT NULL DEFAULT 0,
	total_mentions integer NOT NULL DEFAULT 0,
	total_upvotes  integer NOT NULL DEFAULT 0,
	mentions_90d   integer NOT NULL DEFAULT 0,
	last_seen      timestamptz,
	top_snippets   jsonb NOT NULL DEFAULT '[]',
	computed_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sources (
	name        text PRIMARY KEY,
	city_id     text NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
	is_active   boolean NOT NULL DEFAULT true,
	last_sync   timestamptz,
	total_posts integer NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sources_city ON sources (city_id);

CREATE TABLE IF NOT EXISTS jobs (
	id           text PRIMARY KEY,
	type         text NOT NULL,
	payload      jsonb NOT NULL DEFAULT '{}',
	payload_hash text NOT NULL,
	status       text NOT NULL DEFAULT 'queued',
	attempts     integer NOT NULL DEFAULT 0,
	error        text,
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now(),
	started_at   timestamptz,
	completed_at timestamptz
);
CREATE INDEX IF NOT EXISTS idx_jobs_claim ON jobs (status, created_at) WHERE status = 'queued';
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_idempotent
	ON jobs (type, payload_hash) WHERE status IN ('queued', 'running');

CREATE TABLE IF NOT EXISTS projection_versions (
	view_name    text PRIMARY KEY,
	version_hash text NOT NULL,
	refreshed_at timestamptz NOT NULL DEFAULT now(),
	row_count    integer NOT NULL DEFAULT 0
);

-- Ranked projections are real materialized views over places joined with
-- their scoring-engine-computed place_aggregations row. The refresh job
-- runs REFRESH MATERIALIZED VIEW CONCURRENTLY against each one; each
-- view's unique index below is what makes CONCURRENTLY legal. No INCLUDE
-- list holds place_id or top_snippets, which the ranked read also
-- selects, so that read is not served by an index-only scan.
CREATE MATERIALIZED VIEW IF NOT EXISTS mv_ranked_iconic AS
SELECT p.id AS place_id, p.city_id, p.name, p.cuisine, p.address, p.lat, p.lon,
       a.iconic_score AS score, a.unique_threads, a.total_mentions, a.last_seen, a.top_snippets,
       row_number() OVER (PARTITION BY p.city_id ORDER BY a.iconic_score DESC, p.name ASC) AS rank
FROM places p
JOIN place_aggregations a ON a.place_id = p.id
WHERE p.status = 'open' AND a.total_mentions >= 3
WITH NO DATA;
CREATE UNIQUE INDEX IF NOT EXISTS idx_mv_ranked_iconic_rank
	ON mv_ranked_iconic (city_id, rank)
	INCLUDE (name, cuisine, address, lat, lon, score, unique_threads, total_mentions, last_seen);

CREATE MATERIALIZED VIEW IF NOT EXISTS mv_ranked_trending AS
SELECT p.id AS place_id, p.city_id, p.name, p.cuisine, p.address, p.lat, p.lon,
       a.trending_score AS score, a.unique_threads, a.total_mentions, a.last_seen, a.top_snippets,
       row_number() OVER (PARTITION BY p.city_id ORDER BY a.trending_score DESC, p.name ASC) AS rank
FROM places p
JOIN place_aggregations a ON a.place_id = p.id
WHERE p.status = 'open' AND a.mentions_90d >= 2
WITH NO DATA;
CREATE UNIQUE INDEX IF NOT EXISTS idx_mv_ranked_trending_rank
	ON mv_ranked_trending (city_id, rank)
	INCLUDE (name, cuisine, address, lat, lon, score, unique_threads, total_mentions, last_seen);

CREATE MATERIALIZED VIEW IF NOT EXISTS mv_ranked_cuisine AS
SELECT p.id AS place_id, p.city_id, cz.cuisine_tag, p.name, p.cuisine, p.address, p.lat, p.lon,
       a.iconic_score AS score, a.unique_threads, a.total_mentions, a.last_seen, a.top_snippets,
       row_number() OVER (PARTITION BY p.city_id, cz.cuisine_tag ORDER BY a.iconic_score DESC, p.name ASC) AS rank
FROM places p
JOIN place_aggregations a ON a.place_id = p.id
CROSS JOIN LATERAL unnest(p.cuisine) AS cz(cuisine_tag)
WHERE p.status = 'open' AND a.total_mentions >= 3
WITH NO DATA;
CREATE UNIQUE INDEX IF NOT EXISTS idx_mv_ranked_cuisine_rank
	ON mv_ranked_cuisine (place_id, cuisine_tag);
CREATE INDEX IF NOT EXISTS idx_mv_ranked_cuisine_lookup
	ON mv_ranked_cuisine (city_id, cuisine_tag, rank)
	INCLUDE (name, cuisine, address, lat, lon, score, unique_threads, total_mentions, last_seen);
`

// Migrate applies the schema. It is idempotent and safe to call from both
// cmd/server and cmd/worker on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
