// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package metrics provides Prometheus instrumentation for the Read API,
// the job orchestrator, and the match/scoring engines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablepulse_http_requests_total",
			Help: "Total HTTP requests served by the Read API",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablepulse_http_request_duration_seconds",
			Help:    "Read API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tablepulse_http_active_requests",
			Help: "In-flight HTTP requests",
		},
	)

	HTTPRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablepulse_http_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter, by route class",
		},
		[]string{"route_class"},
	)

	// Storage

	StorageQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablepulse_storage_query_duration_seconds",
			Help:    "Duration of Postgres queries issued by the storage layer",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StorageQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablepulse_storage_query_errors_total",
			Help: "Postgres query errors, by operation",
		},
		[]string{"operation"},
	)

	ProjectionRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablepulse_projection_refresh_duration_seconds",
			Help:    "Duration of a concurrent materialized view refresh",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"view"},
	)

	ProjectionRowCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tablepulse_projection_row_count",
			Help: "Row count recorded at last successful refresh, by projection",
		},
		[]string{"view"},
	)

	ProjectionAgeSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tablepulse_projection_age_seconds",
			Help: "Seconds since the projection's last successful refresh",
		},
		[]string{"view"},
	)

	// Match engine

	MatchStageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablepulse_match_stage_duration_seconds",
			Help:    "Latency of each match engine stage",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"stage"},
	)

	MatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablepulse_match_outcomes_total",
			Help: "Match engine outcomes, by resolving stage or miss",
		},
		[]string{"stage"},
	)

	// Scoring

	ScoringBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablepulse_scoring_batch_duration_seconds",
			Help:    "Duration of a per-city aggregation batch",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"score"},
	)

	ScoringPlacesScored = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tablepulse_scoring_places_scored",
			Help: "Number of places scored in the last aggregation batch, by city",
		},
		[]string{"city"},
	)

	// Job orchestrator

	JobQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tablepulse_jobqueue_depth",
			Help: "Jobs currently queued, by type",
		},
		[]string{"type"},
	)

	JobsClaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablepulse_jobqueue_claimed_total",
			Help: "Jobs claimed by a worker, by type",
		},
		[]string{"type"},
	)

	JobOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablepulse_jobqueue_outcomes_total",
			Help: "Job attempt outcomes, by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablepulse_jobqueue_job_duration_seconds",
			Help:    "Job handler execution duration",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
		},
		[]string{"type"},
	)

	// External collaborators

	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablepulse_upstream_calls_total",
			Help: "Calls to external collaborators, by name and outcome",
		},
		[]string{"collaborator", "outcome"},
	)

	UpstreamCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tablepulse_upstream_circuit_state",
			Help: "Circuit breaker state per collaborator (0=closed, 1=half-open, 2=open)",
		},
		[]string{"collaborator"},
	)
)

// TrackActiveRequest increments or decrements the in-flight HTTP gauge.
func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
		return
	}
	HTTPActiveRequests.Dec()
}

// RecordHTTPRequest records a completed HTTP request's outcome and latency.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
