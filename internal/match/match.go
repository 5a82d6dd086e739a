// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/storage"
)

// Stage names recorded alongside a Result for observability.
const (
	StageAliasExact = "alias_exact"
	StageTrigram    = "trigram"
	StageGeoAssist  = "geo_assist"
)

// store is the subset of *storage.Store the matcher depends on, narrowed so
// tests can supply a fake without pulling in a live database.
type store interface {
	AliasExactMatch(ctx context.Context, cityID, q string) (*storage.Place, error)
	TrigramMatch(ctx context.Context, cityID, q string, threshold float64, maxCandidates int) ([]storage.PlaceCandidate, error)
	GeoAssistMatch(ctx context.Context, cityID, q string, lat, lon, radiusMeters, threshold float64, maxCandidates int) ([]storage.PlaceCandidate, error)
}

// Query is one mention-resolution request.
type Query struct {
	CityID      string
	Text        string // raw mention text; normalized internally
	HasPoint    bool
	Lat         float64
	Lon         float64
	AddressHint string
}

// Result is the outcome of a successful resolution.
type Result struct {
	Place      *storage.Place
	Stage      string
	Similarity float64
}

// Matcher resolves mention text to a Place using the five-stage pipeline.
type Matcher struct {
	store store
	cfg   config.MatchConfig
}

// New builds a Matcher over a storage.Store and the tuned thresholds in cfg.
func New(s *storage.Store, cfg config.MatchConfig) *Matcher {
	return &Matcher{store: s, cfg: cfg}
}

// Resolve runs the stage pipeline and returns at most one Place. A nil
// Result with a nil error means no stage produced a confident match; it is
// not an error condition.
func (m *Matcher) Resolve(ctx context.Context, q Query) (*Result, error) {
	norm := Normalize(q.Text)
	if norm == "" {
		return nil, nil
	}

	if p, err := m.store.AliasExactMatch(ctx, q.CityID, norm); err != nil {
		return nil, fmt.Errorf("alias exact stage: %w", err)
	} else if p != nil {
		return &Result{Place: p, Stage: StageAliasExact, Similarity: 1.0}, nil
	}

	cands, err := m.store.TrigramMatch(ctx, q.CityID, norm, m.cfg.TrigramThreshold, m.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("trigram stage: %w", err)
	}
	if len(cands) > 0 {
		return resolveFromCandidates(cands, StageTrigram, q)
	}

	if q.HasPoint {
		cands, err = m.store.GeoAssistMatch(ctx, q.CityID, norm, q.Lat, q.Lon,
			m.cfg.GeoAssistRadiusMeters, m.cfg.GeoAssistThreshold, m.cfg.MaxCandidates)
		if err != nil {
			return nil, fmt.Errorf("geo-assist stage: %w", err)
		}
		if len(cands) > 0 {
			return resolveFromCandidates(cands, StageGeoAssist, q)
		}
	}

	return nil, nil
}

// resolveFromCandidates applies brand disambiguation (stage 4) and then
// address-consistency soft vetoing (stage 5) to a single stage's candidate
// list. A veto advances to the next candidate in this list; it never causes
// fallback to a different stage.
func resolveFromCandidates(cands []storage.PlaceCandidate, stage string, q Query) (*Result, error) {
	ordered := disambiguateByBrand(cands, q)

	for _, c := range ordered {
		if addressConsistent(c.Address, q.AddressHint) {
			place := c.Place
			return &Result{Place: &place, Stage: stage, Similarity: c.Similarity}, nil
		}
	}
	return nil, nil
}

// disambiguateByBrand implements stage 4: if any candidate carries a brand
// and the query supplies a point, the nearest candidate wins outright.
// Otherwise candidates are sorted by similarity desc, with null-brand
// (single-location) entries preferred over branded ones on ties.
func disambiguateByBrand(cands []storage.PlaceCandidate, q Query) []storage.PlaceCandidate {
	hasBrand := false
	for _, c := range cands {
		if c.Brand != nil {
			hasBrand = true
			break
		}
	}

	out := make([]storage.PlaceCandidate, len(cands))
	copy(out, cands)

	if hasBrand && q.HasPoint {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DistanceMeters < out[j].DistanceMeters
		})
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		iNull, jNull := out[i].Brand == nil, out[j].Brand == nil
		if iNull != jNull {
			return iNull
		}
		return false
	})
	return out
}

// addressConsistent implements stage 5. It is a soft veto, not a hard
// filter: with no hint, or no stored address to compare against, the
// candidate always passes.
func addressConsistent(placeAddr *string, hint string) bool {
	if hint == "" || placeAddr == nil || *placeAddr == "" {
		return true
	}
	a := Normalize(hint)
	b := Normalize(*placeAddr)
	if a == "" || b == "" {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
