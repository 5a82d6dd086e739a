// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package geocoder resolves a free-text city query to a canonical place
// when it isn't already known to the local city catalog.
package geocoder

import "context"

// Result is what a Geocoder returns for a successfully resolved query.
// Confidence is in [0,1]; callers should treat anything below their own
// threshold as a miss.
type Result struct {
	Name       string
	Country    string
	Lat        float64
	Lon        float64
	BBoxMinLat float64
	BBoxMinLon float64
	BBoxMaxLat float64
	BBoxMaxLon float64
	PlaceType  string // "city", "poi", "country", ...
	Confidence float64
}

// Geocoder resolves free text to a place. A nil Result with a nil error
// means no confident match was found.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (*Result, error)
}

// IsCity reports whether a Result represents a city-level place, as
// required by bootstrap's resolve step ("reject points-of-interest or
// countries").
func (r *Result) IsCity() bool {
	return r != nil && r.PlaceType == "city"
}
