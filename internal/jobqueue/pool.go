// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/logging"
	"github.com/tomtom215/tablepulse/internal/metrics"
	"github.com/tomtom215/tablepulse/internal/storage"
)

type fullStore interface {
	store
	SweepStalled(ctx context.Context, timeout time.Duration) (int64, error)
	PurgeOldTerminalJobs(ctx context.Context, retention time.Duration) (int64, error)
	QueueDepthByType(ctx context.Context) (map[string]int, error)
}

// Pool supervises a fixed-size worker pool plus the stalled-job sweeper and
// the queue-depth gauge updater, all under one Suture tree.
type Pool struct {
	supervisor *suture.Supervisor
	store      fullStore
	cfg        config.JobConfig
}

// New builds a Pool of n workers sharing registry over store, optionally
// woken early by a wake channel from a NATS subscriber (nil disables early
// wake; workers then poll on cfg.PollInterval alone).
func New(store *storage.Store, registry Registry, cfg config.JobConfig, n int, wake <-chan struct{}) *Pool {
	if wake == nil {
		wake = make(chan struct{})
	}

	sup := suture.New("jobqueue", suture.Spec{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          cfg.DrainTimeout,
	})

	for i := 0; i < n; i++ {
		sup.Add(&worker{
			name:     fmt.Sprintf("jobqueue-worker-%d", i),
			store:    store,
			registry: registry,
			cfg:      cfg,
			wake:     wake,
		})
	}
	sup.Add(&sweeper{store: store, cfg: cfg})
	sup.Add(&depthGauge{store: store, interval: cfg.PollInterval})

	return &Pool{supervisor: sup, store: store, cfg: cfg}
}

// Serve runs the pool until ctx is canceled, then waits up to
// cfg.DrainTimeout for in-flight jobs to finish before returning.
func (p *Pool) Serve(ctx context.Context) error {
	return p.supervisor.Serve(ctx)
}

// String implements suture.Service so a Pool can be added directly to a
// supervisor.Tree.
func (p *Pool) String() string { return "jobqueue-pool" }

// sweeper periodically resets stalled running jobs and purges old terminal
// rows.
type sweeper struct {
	store fullStore
	cfg   config.JobConfig
}

func (s *sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.StalledTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := s.store.SweepStalled(ctx, s.cfg.StalledTimeout); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("stalled job sweep failed")
			} else if n > 0 {
				logging.Ctx(ctx).Warn().Int64("count", n).Msg("reset stalled jobs to queued")
			}
			if _, err := s.store.PurgeOldTerminalJobs(ctx, s.cfg.RetentionWindow); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("terminal job purge failed")
			}
		}
	}
}

func (s *sweeper) String() string { return "jobqueue-sweeper" }

// depthGauge keeps tablepulse_jobqueue_depth fresh for alerting on a
// growing backlog.
type depthGauge struct {
	store    fullStore
	interval time.Duration
}

func (d *depthGauge) Serve(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			depths, err := d.store.QueueDepthByType(ctx)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("queue depth query failed")
				continue
			}
			for jobType, count := range depths {
				metrics.JobQueueDepth.WithLabelValues(jobType).Set(float64(count))
			}
		}
	}
}

func (d *depthGauge) String() string { return "jobqueue-depth-gauge" }
