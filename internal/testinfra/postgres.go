// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

//go:build integration

package testinfra

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a running Postgres test container preloaded with
// the postgis and pg_trgm extensions the storage layer requires.
type PostgresContainer struct {
	container *postgres.PostgresContainer
	DSN       string
}

// NewPostgresContainer starts a postgis/postgis container and returns its
// connection DSN. The postgis image ships both postgis and pg_trgm; the
// caller's migration step still needs to CREATE EXTENSION explicitly.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	const (
		dbName = "tablepulse_test"
		dbUser = "tablepulse"
		dbPass = "tablepulse"
	)

	c, err := postgres.Run(ctx,
		"postgis/postgis:16-3.4-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPass),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("read connection string: %w", err)
	}

	return &PostgresContainer{container: c, DSN: dsn}, nil
}

// Terminate stops and removes the container.
func (p *PostgresContainer) Terminate(ctx context.Context) error {
	return p.container.Terminate(ctx)
}
