// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package storage

import (
	"time"

	"github.com/lib/pq"
)

// City is a populated place with coverage.
type City struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Country         string    `db:"country"`
	Lat             float64   `db:"lat"`
	Lon             float64   `db:"lon"`
	BBoxMinLat      float64   `db:"bbox_min_lat"`
	BBoxMinLon      float64   `db:"bbox_min_lon"`
	BBoxMaxLat      float64   `db:"bbox_max_lat"`
	BBoxMaxLon      float64   `db:"bbox_max_lon"`
	Ranked          bool      `db:"ranked"`
	LastRefreshedAt *time.Time `db:"last_refreshed_at"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// CityAlias maps a free-text lookup key to a City.
type CityAlias struct {
	CityID    string `db:"city_id"`
	Alias     string `db:"alias"`
	IsBorough bool   `db:"is_borough"`
}

// Place is a restaurant/bar/cafe POI tied to a City.
type Place struct {
	ID             string         `db:"id"`
	CityID         string         `db:"city_id"`
	SourceNativeID *string        `db:"source_native_id"`
	AltGazetteerID *string        `db:"alt_gazetteer_id"`
	Name           string         `db:"name"`
	NameNorm       string         `db:"name_norm"`
	Lat            float64        `db:"lat"`
	Lon            float64        `db:"lon"`
	Address        *string        `db:"address"`
	Cuisine        pq.StringArray `db:"cuisine"`
	Status         string         `db:"status"` // open, closed, unverified
	Brand          *string        `db:"brand"`
	Source         string         `db:"source"` // overture, osm, bootstrap
	Aliases        pq.StringArray `db:"aliases"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// PlaceCandidate is a Place projected with a similarity/distance score for
// the match engine. It is never persisted.
type PlaceCandidate struct {
	Place
	Similarity     float64 `db:"similarity"`
	DistanceMeters float64 `db:"distance_meters"`
}

// Mention is a ToS-safe record of one reference to a Place.
type Mention struct {
	ID              string    `db:"id"`
	PlaceID         *string   `db:"place_id"`
	CityID          string    `db:"city_id"`
	Source          string    `db:"source"`
	PostID          string    `db:"post_id"`
	CommentID       *string   `db:"comment_id"`
	Score           int       `db:"score"`
	Timestamp       time.Time `db:"timestamp"`
	Permalink       string    `db:"permalink"`
	ContentHash     string    `db:"content_hash"`
	ContentLength   int       `db:"content_length"`
	CreatedAt       time.Time `db:"created_at"`
}

// Snippet is an entry in PlaceAggregation.TopSnippets.
type Snippet struct {
	Permalink string    `json:"permalink"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
	Length    int       `json:"length"`
}

// PlaceAggregation is the derived per-Place summary driving rankings.
type PlaceAggregation struct {
	PlaceID        string    `db:"place_id"`
	IconicScore    float64   `db:"iconic_score"`
	TrendingScore  float64   `db:"trending_score"`
	UniqueThreads  int       `db:"unique_threads"`
	TotalMentions  int       `db:"total_mentions"`
	TotalUpvotes   int       `db:"total_upvotes"`
	Mentions90d    int       `db:"mentions_90d"`
	LastSeen       time.Time `db:"last_seen"`
	TopSnippets    []byte    `db:"top_snippets"` // JSON-encoded []Snippet
	ComputedAt     time.Time `db:"computed_at"`
}

// RankedRow is one row of a materialized projection read back at serving
// time.
type RankedRow struct {
	PlaceID       string    `db:"place_id" json:"place_id"`
	CityID        string    `db:"city_id" json:"-"`
	Name          string    `db:"name" json:"name"`
	Cuisine       pq.StringArray `db:"cuisine" json:"cuisine"`
	Address       *string   `db:"address" json:"address,omitempty"`
	Lat           float64   `db:"lat" json:"lat"`
	Lon           float64   `db:"lon" json:"lon"`
	Score         float64   `db:"score" json:"score"`
	Rank          int       `db:"rank" json:"rank"`
	UniqueThreads int       `db:"unique_threads" json:"unique_threads"`
	TotalMentions int       `db:"total_mentions" json:"total_mentions"`
	LastSeen      *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	TopSnippets   []byte    `db:"top_snippets" json:"top_snippets,omitempty"`
}

// ProjectionVersion is one row per materialized projection.
type ProjectionVersion struct {
	ViewName    string    `db:"view_name"`
	VersionHash string    `db:"version_hash"`
	RefreshedAt time.Time `db:"refreshed_at"`
	RowCount    int       `db:"row_count"`
}

// Job is a queued unit of work.
type Job struct {
	ID          string     `db:"id"`
	Type        string     `db:"type"`
	Payload     []byte     `db:"payload"` // JSON
	PayloadHash string     `db:"payload_hash"`
	Status      string     `db:"status"` // queued, running, done, error
	Attempts    int        `db:"attempts"`
	Error       *string    `db:"error"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// Source is a subreddit-to-city mapping.
type Source struct {
	Name       string     `db:"name"`
	CityID     string     `db:"city_id"`
	IsActive   bool       `db:"is_active"`
	LastSync   *time.Time `db:"last_sync"`
	TotalPosts int        `db:"total_posts"`
}

// Job type constants.
const (
	JobTypeBootstrapCity       = "bootstrap_city"
	JobTypeIngestReddit        = "ingest_reddit"
	JobTypeComputeAggregations = "compute_aggregations"
	JobTypeRefreshMVs          = "refresh_mvs"
)

// Job status constants.
const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusError   = "error"
)

// Place status constants.
const (
	PlaceStatusOpen       = "open"
	PlaceStatusClosed     = "closed"
	PlaceStatusUnverified = "unverified"
)

// Place source constants.
const (
	PlaceSourceOverture = "overture"
	PlaceSourceOSM      = "osm"
	PlaceSourceBootstrap = "bootstrap"
)

// Projection view names, whitelisted against this fixed set and never
// taken from request input.
const (
	ViewIconic   = "mv_ranked_iconic"
	ViewTrending = "mv_ranked_trending"
	ViewCuisine  = "mv_ranked_cuisine"
)
