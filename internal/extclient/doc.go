// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package extclient wraps the three external collaborators (geocoder,
// open-map POI provider, discussion source) with a shared rate limiter,
// retry policy, and circuit breaker, so each collaborator-specific client
// only has to implement the call itself.
package extclient
