// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/storage"
)

func strPtr(s string) *string { return &s }

type fakeStore struct {
	aliasResult *storage.Place
	trigramResult []storage.PlaceCandidate
	geoResult     []storage.PlaceCandidate
}

func (f *fakeStore) AliasExactMatch(ctx context.Context, cityID, q string) (*storage.Place, error) {
	return f.aliasResult, nil
}

func (f *fakeStore) TrigramMatch(ctx context.Context, cityID, q string, threshold float64, maxCandidates int) ([]storage.PlaceCandidate, error) {
	return f.trigramResult, nil
}

func (f *fakeStore) GeoAssistMatch(ctx context.Context, cityID, q string, lat, lon, radiusMeters, threshold float64, maxCandidates int) ([]storage.PlaceCandidate, error) {
	return f.geoResult, nil
}

func testMatcher(f *fakeStore) *Matcher {
	return &Matcher{store: f, cfg: config.MatchConfig{
		TrigramThreshold:      0.55,
		GeoAssistThreshold:    0.50,
		GeoAssistRadiusMeters: 2000,
		MaxCandidates:         10,
	}}
}

func TestResolve_AliasExactWins(t *testing.T) {
	p := &storage.Place{ID: "p1", Name: "Franklin Barbecue"}
	m := testMatcher(&fakeStore{aliasResult: p})

	res, err := m.Resolve(context.Background(), Query{CityID: "austin", Text: "Franklin Barbecue"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StageAliasExact, res.Stage)
	assert.Equal(t, "p1", res.Place.ID)
}

func TestResolve_EmptyTextYieldsNoMatch(t *testing.T) {
	m := testMatcher(&fakeStore{})
	res, err := m.Resolve(context.Background(), Query{CityID: "austin", Text: "   !!!   "})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestResolve_TrigramFallsThroughToHighestSimilarity(t *testing.T) {
	cands := []storage.PlaceCandidate{
		{Place: storage.Place{ID: "p2", Name: "Franklins"}, Similarity: 0.6},
		{Place: storage.Place{ID: "p1", Name: "Franklin Barbecue"}, Similarity: 0.9},
	}
	m := testMatcher(&fakeStore{trigramResult: cands})

	res, err := m.Resolve(context.Background(), Query{CityID: "austin", Text: "Franklin Barbeque"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StageTrigram, res.Stage)
	assert.Equal(t, "p1", res.Place.ID)
}

func TestResolve_BrandDisambiguationPrefersNearest(t *testing.T) {
	cands := []storage.PlaceCandidate{
		{Place: storage.Place{ID: "far", Name: "Torchy's Tacos", Brand: strPtr("torchys")}, Similarity: 0.8, DistanceMeters: 1800},
		{Place: storage.Place{ID: "near", Name: "Torchy's Tacos", Brand: strPtr("torchys")}, Similarity: 0.75, DistanceMeters: 200},
	}
	m := testMatcher(&fakeStore{geoResult: cands})

	res, err := m.Resolve(context.Background(), Query{CityID: "austin", Text: "Torchys", HasPoint: true, Lat: 30.27, Lon: -97.74})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "near", res.Place.ID)
}

func TestResolve_BrandDisambiguationPrefersSingleLocationOnTie(t *testing.T) {
	cands := []storage.PlaceCandidate{
		{Place: storage.Place{ID: "chain", Name: "Pizza Place", Brand: strPtr("chain")}, Similarity: 0.8},
		{Place: storage.Place{ID: "indie", Name: "Pizza Place"}, Similarity: 0.8},
	}
	m := testMatcher(&fakeStore{trigramResult: cands})

	res, err := m.Resolve(context.Background(), Query{CityID: "austin", Text: "Pizza Place"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "indie", res.Place.ID)
}

func TestResolve_AddressVetoAdvancesWithinStage(t *testing.T) {
	cands := []storage.PlaceCandidate{
		{Place: storage.Place{ID: "wrong-addr", Name: "Uchi", Address: strPtr("801 S Lamar Blvd")}, Similarity: 0.9},
		{Place: storage.Place{ID: "right-addr", Name: "Uchiko", Address: strPtr("4200 N Lamar Blvd")}, Similarity: 0.7},
	}
	m := testMatcher(&fakeStore{trigramResult: cands})

	res, err := m.Resolve(context.Background(), Query{CityID: "austin", Text: "Uchi", AddressHint: "4200 N Lamar"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "right-addr", res.Place.ID)
}

func TestResolve_AddressVetoExhaustsStageWithoutCrossStageFallback(t *testing.T) {
	cands := []storage.PlaceCandidate{
		{Place: storage.Place{ID: "p1", Name: "Uchi", Address: strPtr("801 S Lamar Blvd")}, Similarity: 0.9},
	}
	m := testMatcher(&fakeStore{
		trigramResult: cands,
		geoResult:     []storage.PlaceCandidate{{Place: storage.Place{ID: "p2", Name: "Uchi Annex"}, Similarity: 0.5}},
	})

	res, err := m.Resolve(context.Background(), Query{CityID: "austin", Text: "Uchi", HasPoint: true, AddressHint: "900 Congress Ave"})
	require.NoError(t, err)
	assert.Nil(t, res, "address veto exhausting the trigram stage must not fall back to geo-assist")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "katz s delicatessen", Normalize("Katz's  Delicatessen!!"))
	assert.Equal(t, "", Normalize("   "))
}

func TestExtractCandidates(t *testing.T) {
	got := ExtractCandidates(`Went to "Franklin Barbecue" yesterday, also tried Torchy's Tacos downtown.`)
	assert.Contains(t, got, "franklin barbecue")
	assert.Contains(t, got, "torchy s tacos")
	assert.NotContains(t, got, "went")
	assert.NotContains(t, got, "downtown")
}
