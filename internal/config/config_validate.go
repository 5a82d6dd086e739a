// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package config

import (
	"fmt"
	"strings"
)

// validationErrors accumulates every field problem found during Validate so
// Load can report them all at once instead of failing on the first.
type validationErrors struct {
	messages []string
}

func (v *validationErrors) add(format string, args ...interface{}) {
	v.messages = append(v.messages, fmt.Sprintf(format, args...))
}

func (v *validationErrors) err() error {
	if len(v.messages) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(v.messages, "\n  - "))
}

// Validate checks required secrets and structural invariants, concatenating
// every failure into a single error so operators see the whole picture on
// the first failed start, not one field per restart.
func (c *Config) Validate() error {
	v := &validationErrors{}

	if c.Database.DSN == "" {
		v.add("TABLEPULSE_DATABASE__DSN is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		v.add("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Match.TrigramThreshold <= 0 || c.Match.TrigramThreshold > 1 {
		v.add("match.trigram_threshold must be in (0,1], got %f", c.Match.TrigramThreshold)
	}
	if c.Match.GeoAssistThreshold <= 0 || c.Match.GeoAssistThreshold > 1 {
		v.add("match.geo_assist_threshold must be in (0,1], got %f", c.Match.GeoAssistThreshold)
	}
	if c.Scoring.PriorN <= 0 {
		v.add("scoring.prior_n must be > 0, got %f", c.Scoring.PriorN)
	}
	if c.Scoring.WilsonZ <= 0 {
		v.add("scoring.wilson_z must be > 0, got %f", c.Scoring.WilsonZ)
	}
	if c.Scoring.TrendingHalfLife <= 0 {
		v.add("scoring.trending_half_life must be > 0")
	}
	if c.Jobs.MaxAttempts <= 0 {
		v.add("jobs.max_attempts must be > 0, got %d", c.Jobs.MaxAttempts)
	}
	if len(c.Jobs.Backoff) == 0 {
		v.add("jobs.backoff must list at least one duration")
	}
	if c.Discussion.BaseURL != "" && (c.Discussion.ClientID == "" || c.Discussion.ClientSecret == "") {
		v.add("TABLEPULSE_DISCUSSION__CLIENT_ID and TABLEPULSE_DISCUSSION__CLIENT_SECRET are required when discussion.base_url is set")
	}
	for i, city := range c.Cities {
		if city.ID == "" {
			v.add("cities[%d].id is required", i)
		}
		if city.Name == "" {
			v.add("cities[%d].name is required", i)
		}
	}

	return v.err()
}
