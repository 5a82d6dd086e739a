// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tablepulse/config.yaml",
	"/etc/tablepulse/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is stripped from every TABLEPULSE_-prefixed environment
// variable before it is mapped to a koanf path.
const envPrefix = "TABLEPULSE_"

// defaultConfig returns the built-in defaults, applied before the config
// file and environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
			EnableSwagger:   true,
			EnableMetrics:   true,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Match: MatchConfig{
			TrigramThreshold:      0.55,
			GeoAssistThreshold:    0.50,
			GeoAssistRadiusMeters: 2000,
			MaxCandidates:         10,
			PersistUnmatched:      false, // open question #1 default
		},
		Scoring: ScoringConfig{
			IconicAlpha:       8,
			IconicBeta:        2,
			PriorN:            10,
			WilsonZ:           1.96,
			TrendingHalfLife:  14 * 24 * time.Hour,
			TrendingWindow:    90 * 24 * time.Hour,
			MinMentionsIconic: 3,
			MinMentions90d:    2,
			MaxTopSnippets:    5,
		},
		Jobs: JobConfig{
			PollInterval: 5 * time.Second,
			MaxAttempts:  5,
			Backoff: []time.Duration{
				60 * time.Second,
				300 * time.Second,
				900 * time.Second,
				3600 * time.Second,
			},
			DrainTimeout:    30 * time.Second,
			StalledTimeout:  10 * time.Minute,
			RetentionWindow: 30 * 24 * time.Hour,
			WakeEnabled:     true,
			WakeNATSURL:     "nats://127.0.0.1:4222",
		},
		RateLimit: RateLimitConfig{
			Backend:    "memory",
			UAFallback: false, // open question #3 default
			Strict:     RouteClassPreset{Requests: 10, Window: time.Minute},
			Standard:   RouteClassPreset{Requests: 100, Window: time.Minute},
			Generous:   RouteClassPreset{Requests: 1000, Window: time.Minute},
			Burst:      RouteClassPreset{Requests: 200, Window: time.Minute},
		},
		Geocoder: GeocoderConfig{
			UserAgent:  "tablepulse/1.0 (+https://github.com/tomtom215/tablepulse)",
			Timeout:    10 * time.Second,
			RatePerSec: 1,
		},
		OpenMap: OpenMapConfig{
			UserAgent:        "tablepulse/1.0 (+https://github.com/tomtom215/tablepulse)",
			Timeout:          30 * time.Second,
			RatePerSec:       1,
			MaxPOIsPerCity:   10000,
			DedupePrecision:  4,
			CachePermanently: false, // open question #2 default
		},
		Discussion: DiscussionConfig{
			Timeout:        10 * time.Second,
			RatePerSec:     1,
			PostsPerWindow: 100,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     "/data/tablepulse/extcache",
			TTL:     24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the final Config by layering defaults, an optional YAML
// config file, and environment variables (highest priority), then
// validates the result. Startup fails with one error that concatenates
// every missing or malformed field, per the package doc comment.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists koanf paths that must be parsed as comma-separated
// slices when they arrive as a flat environment-variable string.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps TABLEPULSE_-prefixed environment variable names to
// koanf dotted paths. A double underscore separates nesting levels so that
// single underscores survive inside a field name, e.g.
// TABLEPULSE_DATABASE__MAX_OPEN_CONNS -> database.max_open_conns and
// TABLEPULSE_DATABASE__DSN -> database.dsn.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(key)
	parts := strings.Split(key, "__")
	return strings.Join(parts, ".")
}
