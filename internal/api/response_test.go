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

func TestETag_DependsOnlyOnSelectionCoordinates(t *testing.T) {
	a := ETag("v1", "nyc", "iconic", "", 0, 50)
	b := ETag("v1", "nyc", "iconic", "", 0, 50)
	if a != b {
		t.Fatalf("expected identical ETags for identical coordinates, got %q vs %q", a, b)
	}

	c := ETag("v1", "nyc", "iconic", "", 50, 50)
	if a == c {
		t.Fatal("expected a different offset to change the ETag")
	}
}

func TestETag_EmptyCuisineNormalizesToAll(t *testing.T) {
	withEmpty := ETag("v1", "nyc", "iconic", "", 0, 50)
	withAll := ETag("v1", "nyc", "iconic", "all", 0, 50)
	if withEmpty != withAll {
		t.Fatalf("expected empty cuisine to normalize the same as \"all\", got %q vs %q", withEmpty, withAll)
	}
}

func TestWriteCacheHeaders_MatchingIfNoneMatchReportsNotModified(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search", nil)
	r.Header.Set("If-None-Match", `"v1-nyc-iconic-all-0-50"`)
	w := httptest.NewRecorder()

	notModified := WriteCacheHeaders(w, r, `"v1-nyc-iconic-all-0-50"`, "public, max-age=3600")
	if !notModified {
		t.Fatal("expected a matching If-None-Match to report not modified")
	}
	if w.Header().Get("ETag") != `"v1-nyc-iconic-all-0-50"` {
		t.Fatal("expected ETag header to be set regardless of match")
	}
}

func TestWriteCacheHeaders_MismatchedIfNoneMatchServesFresh(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search", nil)
	r.Header.Set("If-None-Match", `"stale"`)
	w := httptest.NewRecorder()

	if WriteCacheHeaders(w, r, `"fresh"`, "public, max-age=3600") {
		t.Fatal("expected a mismatched If-None-Match to serve fresh content")
	}
}
