// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # Postgres Container
//
// The PostgresContainer provides a real Postgres instance with postgis and
// pg_trgm preinstalled, for testing the storage layer against the actual
// extensions it depends on:
//
//	func TestPlaceUpsert(t *testing.T) {
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer pg.Terminate(ctx)
//
//	    store, err := storage.Open(ctx, config.DatabaseConfig{DSN: pg.DSN})
//	    // ...
//	}
//
// # Benefits Over Mocks
//
// Using a real container provides several advantages:
//   - Tests validate actual trigram/spatial query behavior
//   - No mock drift (mocks getting out of sync with real SQL)
//   - Tests run against production-equivalent extensions
//
// # CI Considerations
//
// These tests require Docker and network access. In CI:
//   - Self-hosted runners have Docker pre-installed
//   - Container images are cached between runs
//   - Tests are skipped gracefully if Docker is unavailable (SkipIfNoDocker)
package testinfra
