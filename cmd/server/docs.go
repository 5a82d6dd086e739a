// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package main is the Read API server: it serves /api/v2/search,
// /api/v2/fuzzy, /api/v2/places/{id}, /api/v2/cities, /api/v2/cuisines, and
// /health over the projections and base tables that the bootstrap and
// ingest pipelines keep populated. It never matches place names or scores
// mentions itself -- see cmd/worker for that side.
//
// @title        Tablepulse Read API
// @version      1.0
// @description  Ranks restaurants within a city by mining crowd-sourced discussion threads and joining sentiment-weighted mention counts to a point-of-interest gazetteer. Two ranking views are served: iconic (all-time popularity, Wilson-smoothed) and trending (recent-window mention velocity), plus a cuisine facet filter, typo-tolerant fuzzy search, and per-place detail with recent mentions.
// @description
// @description  All responses are JSON, wrapped in an envelope of the form {"data": ..., "meta": {"timestamp", "response_time_ms"}}. Errors use {"error": {"message", "code"}, "meta": ...} and an appropriate 4xx/5xx status.
// @description
// @description  Ranked search responses carry an ETag derived from the underlying projection's version hash; send If-None-Match to get a 304 instead of a full body. Unranked search, place-detail, and list responses are cache-control only (no ETag).
// @description
// @description  Every route is rate-limited per client IP using a sliding-window counter, bucketed into one of four classes (strict, standard, generous, burst) depending on how expensive the underlying query is. A 429 response carries Retry-After.
//
// @contact.name  GitHub Repository
// @contact.url   https://github.com/tomtom215/tablepulse/issues
//
// @license.name  AGPL-3.0-or-later
// @license.url   https://www.gnu.org/licenses/agpl-3.0.html
//
// @host      localhost:8080
// @BasePath  /
// @schemes   http https
//
// @tag.name         search
// @tag.description  Ranked and fuzzy place search, and cuisine facets
//
// @tag.name         places
// @tag.description  Single-place detail: current ranking, aggregation, and recent mentions
//
// @tag.name         cities
// @tag.description  Onboarded-city listing and per-city stats
//
// @tag.name         health
// @tag.description  Liveness, storage reachability, and projection freshness
package main
