// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package openmap fetches points of interest over a bounding box from an
// open map data provider.
package openmap

import "context"

// POI is one point of interest returned by a provider.
type POI struct {
	NativeID string
	Name     string
	Lat      float64
	Lon      float64
	Cuisine  []string
	Address  string
	Brand    string
	Website  string
	Amenity  string
}

// BBox is a WGS84 bounding box.
type BBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// DefaultAmenities is the restaurant-adjacent amenity filter bootstrap
// applies.
var DefaultAmenities = []string{"restaurant", "cafe", "bar", "fast_food"}

// Provider fetches POIs within a bounding box, restricted to the given
// amenity tags.
type Provider interface {
	FetchPOIs(ctx context.Context, box BBox, amenities []string, max int) ([]POI, error)
}
