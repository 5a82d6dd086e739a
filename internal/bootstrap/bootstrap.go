// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package bootstrap

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/lib/pq"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/geocoder"
	"github.com/tomtom215/tablepulse/internal/logging"
	"github.com/tomtom215/tablepulse/internal/match"
	"github.com/tomtom215/tablepulse/internal/openmap"
	"github.com/tomtom215/tablepulse/internal/storage"
)

// Result summarizes one bootstrap run.
type Result struct {
	CityID      string
	CityName    string
	PlacesAdded int
	JobIDs      []string
}

// Pipeline resolves a city, fetches its POIs, and seeds storage.
type Pipeline struct {
	store    *storage.Store
	geocoder geocoder.Geocoder
	openmap  openmap.Provider
	cities   []config.CityConfig
	cfg      config.OpenMapConfig
}

// New builds a bootstrap Pipeline over the local city catalog and the
// geocoder/open-map collaborators.
func New(store *storage.Store, geo geocoder.Geocoder, om openmap.Provider, cities []config.CityConfig, cfg config.OpenMapConfig) *Pipeline {
	return &Pipeline{store: store, geocoder: geo, openmap: om, cities: cities, cfg: cfg}
}

// Run executes the full bootstrap sequence for a free-text city query:
// resolve, fetch POIs, seed storage, and enqueue the ingest chain.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	resolved, err := p.resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	pois, err := p.openmap.FetchPOIs(ctx, openmap.BBox{
		MinLat: resolved.BBoxMinLat, MinLon: resolved.BBoxMinLon,
		MaxLat: resolved.BBoxMaxLat, MaxLon: resolved.BBoxMaxLon,
	}, openmap.DefaultAmenities, p.cfg.MaxPOIsPerCity)
	if err != nil {
		return nil, fmt.Errorf("fetch POIs for %s: %w", resolved.Name, err)
	}
	pois = dedupePOIs(pois, p.cfg.DedupePrecision)

	city := &storage.City{
		Name: resolved.Name, Country: resolved.Country,
		Lat: resolved.Lat, Lon: resolved.Lon,
		BBoxMinLat: resolved.BBoxMinLat, BBoxMinLon: resolved.BBoxMinLon,
		BBoxMaxLat: resolved.BBoxMaxLat, BBoxMaxLon: resolved.BBoxMaxLon,
	}
	if err := p.store.UpsertCity(ctx, city); err != nil {
		return nil, err
	}

	cityCfg := findCityConfig(p.cities, resolved.Name)
	if err := p.seedAliases(ctx, city.ID, cityCfg); err != nil {
		return nil, err
	}

	added, err := p.seedPlaces(ctx, city.ID, pois)
	if err != nil {
		return nil, err
	}

	if err := p.seedSources(ctx, city.ID, cityCfg); err != nil {
		return nil, err
	}

	jobIDs, err := p.enqueueChain(ctx, city.ID)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("city_id", city.ID).Str("city_name", city.Name).
		Int("places_added", added).
		Msg("bootstrap complete")

	return &Result{CityID: city.ID, CityName: city.Name, PlacesAdded: added, JobIDs: jobIDs}, nil
}

// resolve implements step 1: local catalog first, geocoder fallback,
// rejecting non-city results.
func (p *Pipeline) resolve(ctx context.Context, query string) (*geocoder.Result, error) {
	if cfg := findCityConfig(p.cities, query); cfg != nil {
		return &geocoder.Result{
			Name: cfg.Name, Country: cfg.Country, Lat: cfg.Lat, Lon: cfg.Lon,
			BBoxMinLat: cfg.BBoxMinLat, BBoxMinLon: cfg.BBoxMinLon,
			BBoxMaxLat: cfg.BBoxMaxLat, BBoxMaxLon: cfg.BBoxMaxLon,
			PlaceType: "city", Confidence: 1,
		}, nil
	}

	res, err := p.geocoder.Resolve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	if res == nil {
		return nil, storage.ErrCityNotFound
	}
	if !res.IsCity() {
		return nil, fmt.Errorf("%w: %q resolved to a %s, not a city", storage.ErrCityNotFound, query, res.PlaceType)
	}
	return res, nil
}

func (p *Pipeline) seedAliases(ctx context.Context, cityID string, cfg *config.CityConfig) error {
	if cfg == nil {
		return nil
	}
	for _, a := range cfg.Aliases {
		if err := p.store.UpsertCityAlias(ctx, cityID, a, false); err != nil {
			return err
		}
	}
	for _, b := range cfg.Boroughs {
		if err := p.store.UpsertCityAlias(ctx, cityID, b.Name, true); err != nil {
			return err
		}
		for _, a := range b.Aliases {
			if err := p.store.UpsertCityAlias(ctx, cityID, a, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) seedPlaces(ctx context.Context, cityID string, pois []openmap.POI) (int, error) {
	added := 0
	for _, poi := range pois {
		if poi.Name == "" {
			continue
		}
		nativeID := poi.NativeID
		place := &storage.Place{
			CityID:         cityID,
			SourceNativeID: &nativeID,
			Name:           poi.Name,
			NameNorm:       match.Normalize(poi.Name),
			Lat:            poi.Lat,
			Lon:            poi.Lon,
			Cuisine:        pq.StringArray(poi.Cuisine),
			Status:         storage.PlaceStatusOpen,
			Source:         storage.PlaceSourceBootstrap,
		}
		if poi.Address != "" {
			place.Address = &poi.Address
		}
		if poi.Brand != "" {
			place.Brand = &poi.Brand
		}
		if err := p.store.UpsertPlace(ctx, place); err != nil {
			return added, fmt.Errorf("seed place %s: %w", poi.Name, err)
		}
		added++
	}
	return added, nil
}

func (p *Pipeline) seedSources(ctx context.Context, cityID string, cfg *config.CityConfig) error {
	if cfg == nil {
		return nil
	}
	for _, src := range cfg.Sources {
		if err := p.store.UpsertSource(ctx, src, cityID); err != nil {
			return err
		}
	}
	return nil
}

// enqueueChain implements step 7: ingest_reddit -> compute_aggregations ->
// refresh_mvs, each idempotent on (type, payload hash).
func (p *Pipeline) enqueueChain(ctx context.Context, cityID string) ([]string, error) {
	payload := map[string]string{"city_id": cityID}
	types := []string{storage.JobTypeIngestReddit, storage.JobTypeComputeAggregations, storage.JobTypeRefreshMVs}

	ids := make([]string, 0, len(types))
	for _, t := range types {
		id, err := p.store.Enqueue(ctx, t, payload)
		if err != nil {
			return nil, fmt.Errorf("enqueue %s: %w", t, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func findCityConfig(cities []config.CityConfig, query string) *config.CityConfig {
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range cities {
		c := &cities[i]
		if strings.ToLower(c.Name) == q || strings.ToLower(c.ID) == q {
			return c
		}
		for _, a := range c.Aliases {
			if strings.ToLower(a) == q {
				return c
			}
		}
	}
	return nil
}

// dedupePOIs collapses node/way duplicates by (name_norm, lat, lon) rounded
// to precision decimal places.
func dedupePOIs(pois []openmap.POI, precision int) []openmap.POI {
	seen := make(map[string]bool, len(pois))
	out := make([]openmap.POI, 0, len(pois))
	scale := math.Pow(10, float64(precision))
	for _, poi := range pois {
		key := fmt.Sprintf("%s|%.0f|%.0f", match.Normalize(poi.Name), math.Round(poi.Lat*scale), math.Round(poi.Lon*scale))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, poi)
	}
	return out
}
