// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package openmap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tablepulse/internal/extclient"
)

// OverpassProvider fetches POIs from an Overpass-API-compatible endpoint.
type OverpassProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	guard     *extclient.Guard
}

// NewOverpassProvider builds a rate-limited, circuit-broken open-map client.
func NewOverpassProvider(baseURL, userAgent string, timeout time.Duration, ratePerSec float64) *OverpassProvider {
	return &OverpassProvider{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: userAgent,
		guard:     extclient.NewGuard("open-map", ratePerSec, 3),
	}
}

type overpassElement struct {
	Type string  `json:"type"`
	ID   int64   `json:"id"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// FetchPOIs implements Provider.
func (p *OverpassProvider) FetchPOIs(ctx context.Context, box BBox, amenities []string, max int) ([]POI, error) {
	elements, err := extclient.Do(ctx, p.guard, func(ctx context.Context) ([]overpassElement, error) {
		return p.query(ctx, box, amenities)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch POIs: %w", err)
	}

	pois := make([]POI, 0, len(elements))
	for _, e := range elements {
		if len(pois) >= max {
			break
		}
		pois = append(pois, convertOverpassElement(e))
	}
	return pois, nil
}

func (p *OverpassProvider) query(ctx context.Context, box BBox, amenities []string) ([]overpassElement, error) {
	ql := buildOverpassQL(box, amenities)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/interpreter",
		strings.NewReader(url.Values{"data": {ql}}.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build overpass request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned status %d", resp.StatusCode)
	}

	var result overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	return result.Elements, nil
}

// buildOverpassQL renders an Overpass QL query restricted to the amenity
// filter over a bounding box, matching nodes and ways alike.
func buildOverpassQL(box BBox, amenities []string) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	bbox := fmt.Sprintf("%f,%f,%f,%f", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)
	for _, a := range amenities {
		fmt.Fprintf(&b, `node["amenity"="%s"](%s);way["amenity"="%s"](%s);`, a, bbox, a, bbox)
	}
	b.WriteString(");out center tags;")
	return b.String()
}

func convertOverpassElement(e overpassElement) POI {
	cuisine := splitCuisine(e.Tags["cuisine"])
	return POI{
		NativeID: fmt.Sprintf("%s/%d", e.Type, e.ID),
		Name:     e.Tags["name"],
		Lat:      e.Lat,
		Lon:      e.Lon,
		Cuisine:  cuisine,
		Address:  buildAddress(e.Tags),
		Brand:    e.Tags["brand"],
		Website:  e.Tags["website"],
		Amenity:  e.Tags["amenity"],
	}
}

func splitCuisine(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func buildAddress(tags map[string]string) string {
	parts := []string{tags["addr:housenumber"], tags["addr:street"]}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
