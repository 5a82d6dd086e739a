// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package metrics exposes Prometheus collectors registered via promauto's
// default registry. cmd/server mounts /metrics over that registry. cmd/worker
// records its job-queue and upstream series into its own process's registry
// but serves no /metrics endpoint, so those series are not exposed.
package metrics
