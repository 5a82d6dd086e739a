// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package storage

import "errors"

// Sentinel errors returned by storage lookups. Callers in internal/api map
// these to the NotFound error kind; every other storage failure
// is wrapped and surfaces as StorageError.
var (
	ErrCityNotFound  = errors.New("storage: city not found")
	ErrPlaceNotFound = errors.New("storage: place not found")
	ErrJobNotFound   = errors.New("storage: job not found")
	ErrNoProjection  = errors.New("storage: projection version not found")
)
