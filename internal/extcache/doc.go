// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package extcache is an optional Badger-backed TTL cache in front of the
// open-map provider, so a city bootstrapped twice in quick succession
// doesn't double-charge the upstream's rate limit. It is
// disabled by default; callers should fall back to calling the provider
// directly when config.CacheConfig.Enabled is false.
package extcache
