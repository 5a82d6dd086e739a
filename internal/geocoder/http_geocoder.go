// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package geocoder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tablepulse/internal/extclient"
)

// HTTPGeocoder resolves free text against a Nominatim-compatible search
// endpoint. It must identify itself with a descriptive User-Agent per the
// provider's usage policy.
type HTTPGeocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
	guard     *extclient.Guard
}

// NewHTTPGeocoder builds a rate-limited, circuit-broken geocoder client.
func NewHTTPGeocoder(baseURL, userAgent string, timeout time.Duration, ratePerSec float64) *HTTPGeocoder {
	return &HTTPGeocoder{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: userAgent,
		guard:     extclient.NewGuard("geocoder", ratePerSec, 3),
	}
}

type nominatimResult struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Class       string   `json:"class"`
	Type        string   `json:"type"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"` // [south, north, west, east]
	Importance  float64  `json:"importance"`
	Address     struct {
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
		City        string `json:"city"`
		Town        string `json:"town"`
	} `json:"address"`
}

// Resolve implements Geocoder.
func (g *HTTPGeocoder) Resolve(ctx context.Context, query string) (*Result, error) {
	results, err := extclient.Do(ctx, g.guard, func(ctx context.Context) ([]nominatimResult, error) {
		return g.search(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("geocoder resolve %q: %w", query, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	best := results[0]
	return convertNominatimResult(&best)
}

func (g *HTTPGeocoder) search(ctx context.Context, query string) ([]nominatimResult, error) {
	reqURL := fmt.Sprintf("%s/search?q=%s&format=jsonv2&addressdetails=1&limit=1",
		g.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build geocoder request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	return results, nil
}

func convertNominatimResult(r *nominatimResult) (*Result, error) {
	var lat, lon, south, north, west, east float64
	if _, err := fmt.Sscanf(r.Lat, "%f", &lat); err != nil {
		return nil, fmt.Errorf("parse geocoder latitude: %w", err)
	}
	if _, err := fmt.Sscanf(r.Lon, "%f", &lon); err != nil {
		return nil, fmt.Errorf("parse geocoder longitude: %w", err)
	}
	if len(r.BoundingBox) == 4 {
		_, _ = fmt.Sscanf(r.BoundingBox[0], "%f", &south)
		_, _ = fmt.Sscanf(r.BoundingBox[1], "%f", &north)
		_, _ = fmt.Sscanf(r.BoundingBox[2], "%f", &west)
		_, _ = fmt.Sscanf(r.BoundingBox[3], "%f", &east)
	}

	name := r.Address.City
	if name == "" {
		name = r.Address.Town
	}
	if name == "" {
		name = r.Name
	}

	return &Result{
		Name:       name,
		Country:    r.Address.Country,
		Lat:        lat,
		Lon:        lon,
		BBoxMinLat: south,
		BBoxMinLon: west,
		BBoxMaxLat: north,
		BBoxMaxLon: east,
		PlaceType:  classifyPlaceType(r.Class, r.Type),
		Confidence: r.Importance,
	}, nil
}

// classifyPlaceType maps Nominatim's class/type pair down to the
// city/poi/country trichotomy bootstrap's resolve step needs.
func classifyPlaceType(class, typ string) string {
	switch {
	case class == "boundary" && typ == "administrative", class == "place" && (typ == "city" || typ == "town"):
		return "city"
	case class == "boundary" && typ == "country", class == "place" && typ == "country":
		return "country"
	default:
		return "poi"
	}
}
