// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PayloadHash deterministically hashes a job payload so Enqueue can dedupe
// on (type, hash).
func PayloadHash(payload interface{}) (string, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("marshal job payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), raw, nil
}

// Enqueue inserts a new queued Job, or returns the id of an existing
// {queued, running} job with the same (type, payload hash).
func (s *Store) Enqueue(ctx context.Context, jobType string, payload interface{}) (jobID string, err error) {
	hash, raw, err := PayloadHash(payload)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	const q = `
INSERT INTO jobs (id, type, payload, payload_hash, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'queued', now(), now())
ON CONFLICT (type, payload_hash) WHERE status IN ('queued', 'running') DO NOTHING
RETURNING id`
	row := s.db.QueryRowContext(ctx, q, id, jobType, raw, hash)
	if scanErr := row.Scan(&id); scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			var existing string
			const findQ = `SELECT id FROM jobs WHERE type = $1 AND payload_hash = $2 AND status IN ('queued', 'running') ORDER BY created_at DESC LIMIT 1`
			if ferr := s.db.GetContext(ctx, &existing, findQ, jobType, hash); ferr != nil {
				return "", fmt.Errorf("find existing job after conflict: %w", ferr)
			}
			return existing, nil
		}
		return "", fmt.Errorf("enqueue job %s: %w", jobType, scanErr)
	}
	return id, nil
}

// Claim atomically claims the oldest queued job matching one of the given
// types using FOR UPDATE SKIP LOCKED, so multiple workers never contend for
// the same row. Returns nil, nil when no job is claimable.
func (s *Store) Claim(ctx context.Context, types []string) (*Job, error) {
	const q = `
UPDATE jobs SET status = 'running', started_at = now(), updated_at = now()
WHERE id = (
	SELECT id FROM jobs
	WHERE status = 'queued' AND type = ANY($1) AND updated_at <= now()
	ORDER BY created_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, type, payload, payload_hash, status, attempts, error, created_at, updated_at, started_at, completed_at`
	var j Job
	err := s.db.GetContext(ctx, &j, q, pq.Array(types))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return &j, nil
}

// Complete marks a job done.
func (s *Store) Complete(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = 'done', completed_at = now(), updated_at = now() WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return nil
}

// Fail records a job failure: terminal 'error' once attempts reach
// maxAttempts, otherwise requeues with the backoff sequence's next delay.
func (s *Store) Fail(ctx context.Context, jobID string, cause error, maxAttempts int, backoff []time.Duration) error {
	msg := cause.Error()

	var attempts int
	const incQ = `UPDATE jobs SET attempts = attempts + 1, error = $2, updated_at = now() WHERE id = $1 RETURNING attempts`
	if err := s.db.GetContext(ctx, &attempts, incQ, jobID, msg); err != nil {
		return fmt.Errorf("increment attempts for job %s: %w", jobID, err)
	}

	if attempts >= maxAttempts {
		_, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = 'error', updated_at = now() WHERE id = $1`, jobID)
		if err != nil {
			return fmt.Errorf("mark job %s terminal: %w", jobID, err)
		}
		return nil
	}

	delay := backoff[len(backoff)-1]
	if attempts-1 >= 0 && attempts-1 < len(backoff) {
		delay = backoff[attempts-1]
	}
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = 'queued', started_at = NULL, updated_at = now() + $2::interval WHERE id = $1`, jobID, fmt.Sprintf("%d seconds", int(delay.Seconds())))
	if err != nil {
		return fmt.Errorf("requeue job %s: %w", jobID, err)
	}
	return nil
}

// SweepStalled resets running jobs whose started_at is older than timeout
// back to queued, preserving attempts.
func (s *Store) SweepStalled(ctx context.Context, timeout time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE jobs SET status = 'queued', started_at = NULL, updated_at = now()
WHERE status = 'running' AND started_at < now() - $1::interval`, fmt.Sprintf("%d seconds", int(timeout.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("sweep stalled jobs: %w", err)
	}
	return res.RowsAffected()
}

// PurgeOldTerminalJobs deletes done/error jobs older than the retention
// window.
func (s *Store) PurgeOldTerminalJobs(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM jobs WHERE status IN ('done', 'error') AND updated_at < now() - $1::interval`, fmt.Sprintf("%d seconds", int(retention.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("purge old terminal jobs: %w", err)
	}
	return res.RowsAffected()
}

// JobOutcomeCounts is the 24h outcome breakdown shown by the deep health
// check.
type JobOutcomeCounts struct {
	Type   string `db:"type" json:"type"`
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// Last24hJobCounts groups terminal job counts by type and status over the
// last 24 hours.
func (s *Store) Last24hJobCounts(ctx context.Context) ([]JobOutcomeCounts, error) {
	const q = `
SELECT type, status, count(*) AS count
FROM jobs
WHERE status IN ('done', 'error') AND updated_at >= now() - interval '24 hours'
GROUP BY type, status
ORDER BY type, status`
	var counts []JobOutcomeCounts
	if err := s.db.SelectContext(ctx, &counts, q); err != nil {
		return nil, fmt.Errorf("last 24h job counts: %w", err)
	}
	return counts, nil
}

// QueueDepthByType reports the current queued-job count per type, for the
// tablepulse_jobqueue_depth gauge.
func (s *Store) QueueDepthByType(ctx context.Context) (map[string]int, error) {
	type row struct {
		Type  string `db:"type"`
		Count int    `db:"count"`
	}
	var rows []row
	const q = `SELECT type, count(*) AS count FROM jobs WHERE status = 'queued' GROUP BY type`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("queue depth by type: %w", err)
	}
	depths := make(map[string]int, len(rows))
	for _, r := range rows {
		depths[r.Type] = r.Count
	}
	return depths, nil
}
