// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/logging"
	"github.com/tomtom215/tablepulse/internal/metrics"
	"github.com/tomtom215/tablepulse/internal/storage"
)

type store interface {
	Claim(ctx context.Context, types []string) (*storage.Job, error)
	Complete(ctx context.Context, jobID string) error
	Fail(ctx context.Context, jobID string, cause error, maxAttempts int, backoff []time.Duration) error
}

// worker repeatedly claims and executes jobs until its context is
// canceled. It implements suture.Service so a panic or a Serve error in
// one worker never takes down its siblings.
type worker struct {
	name     string
	store    store
	registry Registry
	cfg      config.JobConfig
	wake     <-chan struct{}
}

// Serve implements suture.Service.
func (w *worker) Serve(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		for w.claimAndRun(ctx) {
			// drain the queue before going back to sleep
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (w *worker) String() string {
	return w.name
}

// claimAndRun claims at most one job and runs it, returning true if a job
// was claimed (so the caller should immediately try for another before
// sleeping).
func (w *worker) claimAndRun(ctx context.Context) bool {
	job, err := w.store.Claim(ctx, w.registry.Types())
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("worker", w.name).Msg("claim failed")
		return false
	}
	if job == nil {
		return false
	}
	metrics.JobsClaimed.WithLabelValues(job.Type).Inc()

	start := time.Now()
	handler, ok := w.registry[job.Type]
	var runErr error
	if !ok {
		runErr = fmt.Errorf("no handler registered for job type %q", job.Type)
	} else {
		runErr = handler(ctx, job)
	}
	duration := time.Since(start)

	if runErr != nil {
		metrics.JobOutcomes.WithLabelValues(job.Type, "failure").Inc()
		metrics.JobDuration.WithLabelValues(job.Type).Observe(duration.Seconds())
		logging.Ctx(ctx).Warn().Err(runErr).Str("job_id", job.ID).Str("job_type", job.Type).
			Int("attempts", job.Attempts).Msg("job failed")
		if failErr := w.store.Fail(ctx, job.ID, runErr, w.cfg.MaxAttempts, w.cfg.Backoff); failErr != nil {
			logging.Ctx(ctx).Error().Err(failErr).Str("job_id", job.ID).Msg("failed to record job failure")
		}
		return true
	}

	metrics.JobOutcomes.WithLabelValues(job.Type, "success").Inc()
	metrics.JobDuration.WithLabelValues(job.Type).Observe(duration.Seconds())
	if err := w.store.Complete(ctx, job.ID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("job_id", job.ID).Msg("failed to mark job complete")
	}
	return true
}
