// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package main is the entry point for the tablepulse worker process. It
// runs the city-bootstrap pipeline, the discussion-ingest pipeline, the
// scoring engine, and the materialized-view refresh behind a single
// DB-backed job queue, all under a Suture supervision tree. See
// cmd/server for the read-only HTTP API this worker feeds.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tablepulse/internal/bootstrap"
	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/discussion"
	"github.com/tomtom215/tablepulse/internal/extcache"
	"github.com/tomtom215/tablepulse/internal/geocoder"
	"github.com/tomtom215/tablepulse/internal/ingest"
	"github.com/tomtom215/tablepulse/internal/jobqueue"
	"github.com/tomtom215/tablepulse/internal/logging"
	"github.com/tomtom215/tablepulse/internal/match"
	"github.com/tomtom215/tablepulse/internal/openmap"
	"github.com/tomtom215/tablepulse/internal/scoring"
	"github.com/tomtom215/tablepulse/internal/storage"
	"github.com/tomtom215/tablepulse/internal/supervisor"
)

func main() {
	bootstrapCity := flag.String("bootstrap-city", "", "enqueue a bootstrap_city job for the given free-text city query and exit, without running the worker loop")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("starting tablepulse worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing storage")
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	// -bootstrap-city is the one operator-facing write path onto an
	// otherwise end-user-read-only system: it enqueues the chain's first
	// job and exits immediately, leaving the running worker pool (started
	// separately) to actually execute it.
	if *bootstrapCity != "" {
		id, err := store.Enqueue(ctx, storage.JobTypeBootstrapCity, map[string]string{"city": *bootstrapCity})
		if err != nil {
			logging.Fatal().Err(err).Str("city", *bootstrapCity).Msg("failed to enqueue bootstrap_city job")
		}
		logging.Info().Str("city", *bootstrapCity).Str("job_id", id).Msg("bootstrap_city job enqueued")
		return
	}

	geo := geocoder.NewHTTPGeocoder(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout, cfg.Geocoder.RatePerSec)

	var om openmap.Provider = openmap.NewOverpassProvider(cfg.OpenMap.BaseURL, cfg.OpenMap.UserAgent, cfg.OpenMap.Timeout, cfg.OpenMap.RatePerSec)
	var poiCache *extcache.Cache
	if cfg.Cache.Enabled {
		poiCache, err = extcache.Open(cfg.Cache.Dir)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open poi cache")
		}
		defer func() {
			if err := poiCache.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing poi cache")
			}
		}()
		ttl := cfg.Cache.TTL
		if cfg.OpenMap.CachePermanently {
			ttl = 0
		}
		om = extcache.NewCachedProvider(om, poiCache, ttl)
	}

	discussionSource := discussion.NewHTTPSource(cfg.Discussion.BaseURL, cfg.Discussion.BaseURL+"/oauth/token", cfg.Discussion.ClientID, cfg.Discussion.ClientSecret, cfg.Discussion.Timeout, cfg.Discussion.RatePerSec)

	matcher := match.New(store, cfg.Match)
	bootstrapPipeline := bootstrap.New(store, geo, om, cfg.Cities, cfg.OpenMap)
	ingester := ingest.New(store, discussionSource, matcher, cfg.Discussion)

	registry := jobqueue.Registry{
		storage.JobTypeBootstrapCity:       bootstrapCityHandler(bootstrapPipeline),
		storage.JobTypeIngestReddit:        ingestHandler(ingester),
		storage.JobTypeComputeAggregations: computeAggregationsHandler(store, cfg.Scoring),
		storage.JobTypeRefreshMVs:          refreshMVsHandler(store),
	}

	var wake jobqueue.WakeNotifier
	if cfg.Jobs.WakeEnabled {
		wake, err = jobqueue.NewNATSWake(ctx, cfg.Jobs.WakeNATSURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect wake notifier")
		}
	} else {
		wake = jobqueue.NewNoopWake()
	}
	defer func() {
		if err := wake.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing wake notifier")
		}
	}()

	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	pool := jobqueue.New(store, registry, cfg.Jobs, n, wake.Chan())

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewTree("tablepulse-worker", slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}
	tree.AddMessagingService(pool)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Int("workers", n).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var fatal error
	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
			fatal = err
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
			fatal = err
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
		fatal = fmt.Errorf("services failed to stop within timeout")
	}

	if fatal != nil {
		logging.Error().Err(fatal).Msg("tablepulse worker stopped with errors")
		os.Exit(1)
	}
	logging.Info().Msg("tablepulse worker stopped gracefully")
}

// jobPayload matches the {"city": ...} / {"city_id": ...} shapes each job
// type's payload is enqueued with.
type jobPayload struct {
	City   string `json:"city"`
	CityID string `json:"city_id"`
}

func decodePayload(job *storage.Job) (jobPayload, error) {
	var p jobPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return p, fmt.Errorf("job %s: decode payload: %w", job.ID, err)
	}
	return p, nil
}

// bootstrapCityHandler adapts the bootstrap pipeline to a jobqueue.Handler.
// The job payload is {"city": "<free-text query>"}.
func bootstrapCityHandler(p *bootstrap.Pipeline) jobqueue.Handler {
	return func(ctx context.Context, job *storage.Job) error {
		payload, err := decodePayload(job)
		if err != nil {
			return err
		}
		if payload.City == "" {
			return fmt.Errorf("bootstrap_city job %s: missing city payload", job.ID)
		}
		_, err = p.Run(ctx, payload.City)
		return err
	}
}

// ingestHandler adapts the discussion ingester to a jobqueue.Handler. The
// job payload is {"city_id": "<uuid>"}.
func ingestHandler(ing *ingest.Ingester) jobqueue.Handler {
	return func(ctx context.Context, job *storage.Job) error {
		payload, err := decodePayload(job)
		if err != nil {
			return err
		}
		if payload.CityID == "" {
			return fmt.Errorf("ingest_reddit job %s: missing city_id payload", job.ID)
		}
		summary, err := ing.Run(ctx, payload.CityID)
		if err != nil {
			return err
		}
		logging.Ctx(ctx).Info().
			Str("city_id", payload.CityID).
			Int("posts_fetched", summary.PostsFetched).
			Int("mentions_inserted", summary.MentionsInserted).
			Int("errors", len(summary.Errors)).
			Msg("ingest complete")
		return nil
	}
}

// computeAggregationsHandler folds a city's mention rows into Wilson-smoothed
// iconic/trending PlaceAggregation rows. The job payload is
// {"city_id": "<uuid>"}.
func computeAggregationsHandler(store *storage.Store, cfg config.ScoringConfig) jobqueue.Handler {
	return func(ctx context.Context, job *storage.Job) error {
		payload, err := decodePayload(job)
		if err != nil {
			return err
		}
		cityID := payload.CityID
		if cityID == "" {
			return fmt.Errorf("compute_aggregations job %s: missing city_id payload", job.ID)
		}
		rows, err := store.MentionRowsForCity(ctx, cityID)
		if err != nil {
			return fmt.Errorf("load mention rows for city %s: %w", cityID, err)
		}
		aggs, err := scoring.ComputeCity(rows, cfg)
		if err != nil {
			return fmt.Errorf("compute aggregations for city %s: %w", cityID, err)
		}
		if err := store.UpsertAggregations(ctx, aggs); err != nil {
			return fmt.Errorf("upsert aggregations for city %s: %w", cityID, err)
		}
		return store.MarkCityRanked(ctx, cityID)
	}
}

// refreshMVsHandler refreshes the three ranked projections for a city. The
// job payload is {"city_id": "<uuid>"}; city_id is accepted but unused
// since the materialized views aren't partitioned per city -- the refresh
// always recomputes the full ranking over every ranked city.
func refreshMVsHandler(store *storage.Store) jobqueue.Handler {
	return func(ctx context.Context, job *storage.Job) error {
		for _, view := range []string{storage.ViewIconic, storage.ViewTrending, storage.ViewCuisine} {
			if err := store.RefreshProjection(ctx, view); err != nil {
				return fmt.Errorf("refresh %s: %w", view, err)
			}
		}
		return nil
	}
}
