// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package match resolves a free-text mention of a restaurant to a single
// Place within a city, trying a fixed sequence of stages (alias-exact,
// trigram, geo-assist, brand disambiguation, address consistency) and
// stopping at the first stage that produces a candidate. Matching is pure
// over storage: it never writes, and every call is safe to retry.
package match
