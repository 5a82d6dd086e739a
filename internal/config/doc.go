// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package config loads tablepulse's structured configuration.
//
// # Configuration Loading Order (Koanf v2)
//
//  1. Defaults: built-in sensible defaults (defaultConfig)
//  2. Config File: optional YAML file, found via CONFIG_PATH or
//     DefaultConfigPaths
//  3. Environment Variables: TABLEPULSE_-prefixed, highest priority
//
// Nesting in environment variable names uses a double underscore, e.g.
// TABLEPULSE_DATABASE__DSN -> database.dsn. This keeps single underscores
// available inside field names (TABLEPULSE_DATABASE__MAX_OPEN_CONNS).
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err) // err lists every missing/malformed field at once
//	}
//
// # Secrets
//
// database.dsn and discussion.client_id/client_secret are never given
// defaults. Load does not restrict them to the environment: the config
// file layer can set them as well. Validate rejects a configuration
// missing database.dsn, or missing the discussion credentials while
// discussion.base_url is set, before any component starts.
package config
