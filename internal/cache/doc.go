// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

/*
Package cache provides the two in-process data structures tablepulse
actually uses: an LFU cache for reusing computed results, and a sliding-
window counter for rate limiting.

# LFUCacheGeneric

internal/ingest caches resolved place IDs per city+content-hash in a
LFUCacheGeneric[[]string], so byte-identical text repeated across a
thread's comments only runs candidate extraction and the matcher's stage
pipeline once. It never gates persistence -- every occurrence of a
matched place still gets its own Mention row; the cache only saves
recomputing the match.

	resolved := cache.NewLFUCacheGeneric[[]string](10000, time.Hour)
	if ids, ok := resolved.Get(key); ok {
	    return ids, nil
	}
	// ... resolve via the matcher ...
	resolved.Set(key, ids)

LFUCacheGeneric wraps the non-generic LFUCache, which tracks per-entry
access frequency in a doubly-linked list per frequency bucket so Get is
O(1) and eviction always removes the true least-frequently-used entry,
not an LRU approximation.

# SlidingWindowStore

internal/ratelimiter's in-process backend is a SlidingWindowStore: one
circular bucket ring per rate-limited key, summed on Count to approximate
a true sliding window without storing a timestamp per request.

	store := cache.NewSlidingWindowStore(time.Minute, 6, 100000)
	store.Increment(clientKey)
	if store.Count(clientKey) > limit {
	    // reject
	}

# See Also

  - internal/ingest: LFUCacheGeneric consumer
  - internal/ratelimiter: SlidingWindowStore consumer
*/
package cache
