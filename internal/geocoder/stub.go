// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package geocoder

import "context"

// Stub is a fixed-table Geocoder for tests and offline development; it
// never makes a network call.
type Stub struct {
	Results map[string]*Result
}

// NewStub builds a Stub over a query->Result table. Lookups are exact and
// case-sensitive; callers normalize as needed before calling Resolve.
func NewStub(results map[string]*Result) *Stub {
	return &Stub{Results: results}
}

// Resolve implements Geocoder.
func (s *Stub) Resolve(_ context.Context, query string) (*Result, error) {
	return s.Results[query], nil
}
