// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package ingest pulls discussion threads for a city's active sources,
// extracts place-name candidates, resolves them against the gazetteer, and
// persists the matched subset as Mentions. Raw discussion text never
// outlives one Run call: every post and comment is hashed and discarded
// immediately after candidate extraction.
package ingest
