// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package config loads tablepulse's structured configuration: match
// thresholds, scoring parameters, job backoff, rate-limit presets, and the
// city catalog, layered defaults -> config file -> environment per Load's
// doc comment. Secrets (DB DSN, discussion API credentials) have no
// defaults and are validated; like every other field they are taken from
// whichever layer sets them, so a config file can supply them too. Load
// fails fast with one concatenated error listing every missing or
// malformed field.
package config

import "time"

// Config is the root structured configuration for both cmd/server and
// cmd/worker. Both processes call Load() and share this type so the job
// backoff sequence, match thresholds, and city catalog never drift between
// the read path and the write path.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Match       MatchConfig       `koanf:"match"`
	Scoring     ScoringConfig     `koanf:"scoring"`
	Jobs        JobConfig         `koanf:"jobs"`
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
	Geocoder    GeocoderConfig    `koanf:"geocoder"`
	OpenMap     OpenMapConfig     `koanf:"open_map"`
	Discussion  DiscussionConfig `koanf:"discussion"`
	Cache       CacheConfig       `koanf:"cache"`
	Logging     LoggingConfig     `koanf:"logging"`
	Cities      []CityConfig      `koanf:"cities"`
}

// ServerConfig controls the HTTP edge process.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	EnableSwagger   bool          `koanf:"enable_swagger"`
	EnableMetrics   bool          `koanf:"enable_metrics"`
}

// DatabaseConfig holds the Postgres connection pool settings. DSN itself is
// a secret with no default; it is usually set through the
// TABLEPULSE_DATABASE__DSN environment variable, though Load also accepts
// database.dsn from the config file.
type DatabaseConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// MatchConfig tunes the multi-stage matcher.
type MatchConfig struct {
	TrigramThreshold      float64 `koanf:"trigram_threshold"`
	GeoAssistThreshold    float64 `koanf:"geo_assist_threshold"`
	GeoAssistRadiusMeters float64 `koanf:"geo_assist_radius_meters"`
	MaxCandidates         int     `koanf:"max_candidates"`
	PersistUnmatched      bool    `koanf:"persist_unmatched"`
}

// ScoringConfig holds the iconic/trending formula parameters.
type ScoringConfig struct {
	IconicAlpha       float64       `koanf:"iconic_alpha"`
	IconicBeta        float64       `koanf:"iconic_beta"`
	PriorN            float64       `koanf:"prior_n"`
	WilsonZ           float64       `koanf:"wilson_z"`
	TrendingHalfLife  time.Duration `koanf:"trending_half_life"`
	TrendingWindow    time.Duration `koanf:"trending_window"`
	MinMentionsIconic int           `koanf:"min_mentions_iconic"`
	MinMentions90d    int           `koanf:"min_mentions_90d"`
	MaxTopSnippets    int           `koanf:"max_top_snippets"`
}

// JobConfig controls orchestrator polling, retries, and drain behavior.
type JobConfig struct {
	PollInterval    time.Duration   `koanf:"poll_interval"`
	MaxAttempts     int             `koanf:"max_attempts"`
	Backoff         []time.Duration `koanf:"backoff"`
	DrainTimeout    time.Duration   `koanf:"drain_timeout"`
	StalledTimeout  time.Duration   `koanf:"stalled_timeout"`
	RetentionWindow time.Duration   `koanf:"retention_window"`
	WakeNATSURL     string          `koanf:"wake_nats_url"`
	WakeEnabled     bool            `koanf:"wake_enabled"`
}

// RateLimitConfig lists the route-class sliding-window presets.
type RateLimitConfig struct {
	Backend       string               `koanf:"backend"` // "memory", "badger", or "" (disabled -> fail open)
	BadgerDir     string               `koanf:"badger_dir"`
	UAFallback    bool                 `koanf:"ua_fallback"` // open question #3
	Strict        RouteClassPreset     `koanf:"strict"`
	Standard      RouteClassPreset     `koanf:"standard"`
	Generous      RouteClassPreset     `koanf:"generous"`
	Burst         RouteClassPreset     `koanf:"burst"`
}

// RouteClassPreset is a requests-per-window sliding-window preset.
type RouteClassPreset struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// GeocoderConfig configures the geocoder collaborator's client.
type GeocoderConfig struct {
	BaseURL      string        `koanf:"base_url"`
	UserAgent    string        `koanf:"user_agent"`
	Timeout      time.Duration `koanf:"timeout"`
	RatePerSec   float64       `koanf:"rate_per_sec"`
}

// OpenMapConfig configures the open-map POI provider client.
type OpenMapConfig struct {
	BaseURL          string        `koanf:"base_url"`
	UserAgent        string        `koanf:"user_agent"`
	Timeout          time.Duration `koanf:"timeout"`
	RatePerSec       float64       `koanf:"rate_per_sec"`
	MaxPOIsPerCity   int           `koanf:"max_pois_per_city"`
	DedupePrecision  int           `koanf:"dedupe_precision"` // decimal places for lat/lon rounding
	CachePermanently bool          `koanf:"cache_permanently"` // open question #2
}

// DiscussionConfig configures the discussion-source OAuth client. ClientID
// and ClientSecret are secrets loaded strictly from the environment.
type DiscussionConfig struct {
	BaseURL       string        `koanf:"base_url"`
	ClientID      string        `koanf:"client_id"`
	ClientSecret  string        `koanf:"client_secret"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSec    float64       `koanf:"rate_per_sec"`
	PostsPerWindow int          `koanf:"posts_per_window"`
}

// CacheConfig controls the optional badger-backed open-map response cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Dir     string        `koanf:"dir"`
	TTL     time.Duration `koanf:"ttl"`
}

// LoggingConfig mirrors internal/logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CityConfig seeds the bootstrap pipeline's local city catalog,
// avoiding a geocoder round-trip for well-known cities.
type CityConfig struct {
	ID        string         `koanf:"id"`
	Name      string         `koanf:"name"`
	Country   string         `koanf:"country"`
	Lat       float64        `koanf:"lat"`
	Lon       float64        `koanf:"lon"`
	BBoxMinLat float64       `koanf:"bbox_min_lat"`
	BBoxMinLon float64       `koanf:"bbox_min_lon"`
	BBoxMaxLat float64       `koanf:"bbox_max_lat"`
	BBoxMaxLon float64       `koanf:"bbox_max_lon"`
	Aliases   []string       `koanf:"aliases"`
	Boroughs  []BoroughConfig `koanf:"boroughs"`
	Sources   []string       `koanf:"sources"` // discussion-source board names
}

// BoroughConfig is a borough-level alias group within a CityConfig.
type BoroughConfig struct {
	Name    string   `koanf:"name"`
	Aliases []string `koanf:"aliases"`
}
