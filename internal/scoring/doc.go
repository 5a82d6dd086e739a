// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package scoring computes the iconic and trending scores that drive
// ranked projections. Both scores fold a city's Mentions into a single
// Wilson-smoothed value per Place; the batch boundary is always the city,
// matching how the Read API paginates results.
package scoring
