// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseSearchParams_RejectsMissingCity(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search?type=iconic", nil)
	if _, err := parseSearchParams(r); err == nil {
		t.Fatal("expected an error for a missing city parameter")
	}
}

func TestParseSearchParams_RejectsInvalidType(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search?city=nyc&type=bogus", nil)
	if _, err := parseSearchParams(r); err == nil {
		t.Fatal("expected an error for an invalid type parameter")
	}
}

func TestParseSearchParams_ClampsLimitAboveCeiling(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search?city=nyc&type=iconic&limit=500", nil)
	p, err := parseSearchParams(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 100 {
		t.Fatalf("expected a limit beyond the ceiling to be clamped to 100, got %d", p.Limit)
	}
}

func TestParseSearchParams_DefaultsLimitAndOffset(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search?city=nyc&type=iconic", nil)
	p, err := parseSearchParams(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 50 || p.Offset != 0 {
		t.Fatalf("expected default limit=50 offset=0, got limit=%d offset=%d", p.Limit, p.Offset)
	}
}

func TestParseFuzzyParams_RejectsShortQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/fuzzy?q=a", nil)
	if _, err := parseFuzzyParams(r); err == nil {
		t.Fatal("expected an error for a query shorter than 2 characters")
	}
}

func TestParseFuzzyParams_AcceptsMinimalQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/fuzzy?q=ka", nil)
	p, err := parseFuzzyParams(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Q != "ka" || p.Limit != 20 {
		t.Fatalf("unexpected parse result: %+v", p)
	}
}

func TestParseCuisinesParams_RequiresCity(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/cuisines", nil)
	if _, err := parseCuisinesParams(r); err == nil {
		t.Fatal("expected an error for a missing city parameter")
	}
}
