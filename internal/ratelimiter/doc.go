// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package ratelimiter enforces per-route-class, per-client sliding-window
// request limits ahead of the HTTP handlers. Four presets cover the
// read API's endpoints: strict (expensive fuzzy search), standard (the
// default), generous (cheap lookups like /cuisines), and burst
// (interactive autocomplete). The backend is pluggable: an in-process
// counter for single-instance deployments, or a Badger-backed one that
// survives process restarts and is shared by multiple API instances on
// the same host. Setting Backend to "" disables limiting entirely and
// Allow always reports ok.
package ratelimiter
