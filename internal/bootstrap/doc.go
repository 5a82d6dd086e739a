// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package bootstrap resolves a free-text city query to a known or
// newly-geocoded city, fetches its points of interest, and seeds storage
// so the ingest and scoring pipelines have somewhere to write. Every step
// is an upsert; re-running bootstrap for an already-known city is always
// safe.
package bootstrap
