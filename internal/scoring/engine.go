// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/storage"
)

// now is indirected so tests can pin "the present" without a live clock.
var now = time.Now

// placeAccum collects one Place's raw aggregates while folding its mentions.
type placeAccum struct {
	threads        map[string]bool
	totalMentions  int
	totalUpvotes   int
	mentions90d    int
	trendingRaw    float64
	lastSeen       time.Time
	snippets       []storage.Snippet
}

// ComputeCity folds every Mention row for a city into one PlaceAggregation
// per mentioned Place, applying the iconic and trending formulas with the
// city as the shared normalization batch. Only places that appear in rows
// get an aggregation; places with zero mentions are absent from the
// result, matching UpsertAggregations's per-row-only-if-computed contract.
func ComputeCity(rows []storage.MentionRow, cfg config.ScoringConfig) ([]storage.PlaceAggregation, error) {
	accums := make(map[string]*placeAccum)
	order := make([]string, 0)
	ref := now()
	window := ref.Add(-cfg.TrendingWindow)

	for _, r := range rows {
		a, ok := accums[r.PlaceID]
		if !ok {
			a = &placeAccum{threads: make(map[string]bool)}
			accums[r.PlaceID] = a
			order = append(order, r.PlaceID)
		}

		a.threads[r.PostID] = true
		a.totalMentions++
		if r.Score > 0 {
			a.totalUpvotes += r.Score
		}
		if r.Timestamp.After(a.lastSeen) {
			a.lastSeen = r.Timestamp
		}
		a.snippets = append(a.snippets, storage.Snippet{
			Permalink: r.Permalink,
			Score:     r.Score,
			Timestamp: r.Timestamp,
			Hash:      r.Hash,
			Length:    r.Length,
		})

		if r.Timestamp.After(window) {
			a.mentions90d++
			a.trendingRaw += trendingWeight(ref.Sub(r.Timestamp), r.Score, cfg.TrendingHalfLife)
		}
	}

	iconicRaw := make(map[string]float64, len(order))
	maxIconicRaw := 0.0
	for _, id := range order {
		a := accums[id]
		n := float64(len(a.threads)) + cfg.PriorN
		raw := (float64(len(a.threads))*cfg.IconicAlpha + float64(a.totalMentions)*cfg.IconicBeta + float64(a.totalUpvotes)) / math.Max(n, 1)
		iconicRaw[id] = raw
		if raw > maxIconicRaw {
			maxIconicRaw = raw
		}
	}

	maxTrendingRaw := 0.0
	for _, id := range order {
		if accums[id].trendingRaw > maxTrendingRaw {
			maxTrendingRaw = accums[id].trendingRaw
		}
	}

	out := make([]storage.PlaceAggregation, 0, len(order))
	for _, id := range order {
		a := accums[id]
		uniqueThreads := len(a.threads)

		var iconicScore float64
		if a.totalMentions >= cfg.MinMentionsIconic && maxIconicRaw > 0 {
			p := iconicRaw[id] / maxIconicRaw
			n := float64(uniqueThreads) + cfg.PriorN
			iconicScore = wilsonLowerBound(p, cfg.WilsonZ, n) * 100
		}

		var trendingScore float64
		if a.mentions90d >= cfg.MinMentions90d && maxTrendingRaw > 0 {
			p := a.trendingRaw / maxTrendingRaw
			n := float64(a.mentions90d)
			trendingScore = wilsonLowerBound(p, cfg.WilsonZ, n) * 100
		}

		snippetsJSON, err := json.Marshal(topSnippets(a.snippets, cfg.MaxTopSnippets))
		if err != nil {
			return nil, fmt.Errorf("marshal top snippets for place %s: %w", id, err)
		}

		out = append(out, storage.PlaceAggregation{
			PlaceID:       id,
			IconicScore:   iconicScore,
			TrendingScore: trendingScore,
			UniqueThreads: uniqueThreads,
			TotalMentions: a.totalMentions,
			TotalUpvotes:  a.totalUpvotes,
			Mentions90d:   a.mentions90d,
			LastSeen:      a.lastSeen,
			TopSnippets:   snippetsJSON,
		})
	}
	return out, nil
}

// trendingWeight folds recency decay, a short-window recency multiplier,
// and an upvote boost into one per-mention weight.
func trendingWeight(age time.Duration, score int, halfLife time.Duration) float64 {
	ageDays := age.Hours() / 24
	halfLifeDays := halfLife.Hours() / 24
	decay := math.Exp(-math.Ln2 * ageDays / halfLifeDays)

	recencyMult := 1.0
	switch {
	case ageDays < 1:
		recencyMult = 2.0
	case ageDays < 7:
		recencyMult = 1.5
	}

	boostScore := score
	if boostScore < 0 {
		boostScore = 0
	}
	upvoteBoost := 1 + float64(boostScore)*0.02

	return decay * recencyMult * upvoteBoost
}

// topSnippets selects up to max mentions ordered by (score desc, timestamp
// desc).
func topSnippets(snippets []storage.Snippet, max int) []storage.Snippet {
	sorted := make([]storage.Snippet, len(snippets))
	copy(sorted, snippets)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}
