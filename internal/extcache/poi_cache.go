// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package extcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tablepulse/internal/openmap"
)

// CachedProvider decorates an openmap.Provider with a TTL cache keyed on
// the bounding box and amenity filter, so bootstrap re-runs for the same
// city within the TTL never re-hit the upstream (open question "cache
// permanently" resolved as off by default; see config.OpenMapConfig.CachePermanently).
type CachedProvider struct {
	inner openmap.Provider
	cache *Cache
	ttl   time.Duration
}

// NewCachedProvider wraps inner with a Cache, keeping entries for ttl (0
// means cache forever, matching config.OpenMapConfig.CachePermanently).
func NewCachedProvider(inner openmap.Provider, cache *Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl}
}

// FetchPOIs implements openmap.Provider.
func (p *CachedProvider) FetchPOIs(ctx context.Context, box openmap.BBox, amenities []string, max int) ([]openmap.POI, error) {
	key := poiCacheKey(box, amenities, max)

	if raw, found, err := p.cache.Get(key); err == nil && found {
		var pois []openmap.POI
		if err := json.Unmarshal(raw, &pois); err == nil {
			return pois, nil
		}
	}

	pois, err := p.inner.FetchPOIs(ctx, box, amenities, max)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(pois); err == nil {
		_ = p.cache.Set(key, raw, p.ttl)
	}
	return pois, nil
}

func poiCacheKey(box openmap.BBox, amenities []string, max int) string {
	return fmt.Sprintf("poi:%.6f,%.6f,%.6f,%.6f:%s:%d",
		box.MinLat, box.MinLon, box.MaxLat, box.MaxLon, strings.Join(amenities, ","), max)
}
