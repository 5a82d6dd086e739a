// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tablepulse/internal/logging"
)

// meta carries the timing/timestamp fields every response envelope shares.
type meta struct {
	Timestamp      time.Time `json:"timestamp"`
	ResponseTimeMs int64     `json:"response_time_ms"`
}

type envelope struct {
	Data any  `json:"data"`
	Meta meta `json:"meta"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
	Meta  meta      `json:"meta"`
}

// RespondData writes data wrapped in the canonical envelope with the given
// status code.
func RespondData(w http.ResponseWriter, r *http.Request, status int, data any, start time.Time) {
	body := envelope{Data: data, Meta: meta{Timestamp: time.Now().UTC(), ResponseTimeMs: time.Since(start).Milliseconds()}}
	writeJSON(w, r, status, body)
}

// RespondError writes the canonical error envelope. code is a short,
// machine-readable slug (e.g. "not_found", "invalid_type"); message is
// human-readable.
func RespondError(w http.ResponseWriter, status int, message, code string) {
	body := errorEnvelope{Error: errorBody{Message: message, Code: code}, Meta: meta{Timestamp: time.Now().UTC()}}
	raw, err := json.Marshal(body)
	if err != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal response body")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// ETag computes the deterministic tag for a ranked response: the
// projection's version hash combined with the request coordinates that
// select its rows, so two requests selecting different slices of the same
// projection never collide on the same tag.
func ETag(versionHash, city, rankType, cuisine string, offset, limit int) string {
	if cuisine == "" {
		cuisine = "all"
	}
	return fmt.Sprintf(`"%s-%s-%s-%s-%d-%d"`, versionHash, city, rankType, cuisine, offset, limit)
}

// WriteCacheHeaders sets Cache-Control and ETag, and reports whether the
// request's If-None-Match already matches (caller should then respond 304
// with no body).
func WriteCacheHeaders(w http.ResponseWriter, r *http.Request, etag, cacheControl string) (notModified bool) {
	w.Header().Set("Cache-Control", cacheControl)
	if etag != "" {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			return true
		}
	}
	return false
}
