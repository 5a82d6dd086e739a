// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

/*
Package middleware provides HTTP middleware components for the Read API.

This package implements infrastructure middleware for compression and
Prometheus request instrumentation; internal/api's router wraps both
around every route via asHandlerMiddleware. The PerformanceMonitor and
RequestID types are kept as in-process alternatives to the Prometheus and
chi-based equivalents internal/api already uses and are not currently
wired into the router.

Key Components:

  - Compression: Gzip compression for every response when gzip is accepted
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

The router wraps every route, in order, with:

	chimiddleware.Recoverer
	RequestIDWithLogging (internal/api)
	APISecurityHeaders (internal/api)
	CORS (internal/api)
	chimiddleware.Timeout
	middleware.PrometheusMetrics
	middleware.Compression

Usage Example - Compression:

	import "github.com/tomtom215/tablepulse/internal/middleware"

	// Wrap handler with gzip compression
	http.HandleFunc("/api/v1/data",
	    middleware.Compression(handler),
	)

	// Responses of any size are compressed
	// Accept-Encoding: gzip header is required

Usage Example - Performance Monitoring:

	// Create performance monitor keeping the 1000 most recent samples
	perfMon := middleware.NewPerformanceMonitor(1000)

	// Wrap handler (Middleware takes and returns an http.Handler)
	http.Handle("/api/v1/stats",
	    perfMon.Middleware(handler),
	)

	// Get per-endpoint performance statistics (milliseconds)
	for _, stats := range perfMon.GetStats() {
	    fmt.Printf("%s p50: %d, p95: %d, p99: %d\n",
	        stats.Path, stats.P50Duration, stats.P95Duration, stats.P99Duration)
	}

Usage Example - Request ID:

	// Request ID middleware
	http.HandleFunc("/api/v1/logs",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := r.Context().Value(middleware.RequestIDKey).(string)
	    log.Printf("[%s] Processing request", requestID)
	}

Performance Characteristics:

  - Compression: 70-90% size reduction for JSON (text/json mime types)
  - Compression overhead: ~1-2ms for typical responses
  - Metrics overhead: <0.1ms per request
  - Request ID overhead: <0.01ms (UUID generation)
  - Performance monitor: RWMutex-guarded slice of recent latency samples

Compression Details:

The compression middleware:
  - Compresses responses of every size (no threshold)
  - Supports gzip encoding (Accept-Encoding: gzip)
  - Applies to every content type (no MIME type check)
  - Automatically sets Content-Encoding header
  - Has no Flush support; the wrapped writer does not implement http.Flusher

Performance Monitor:

The performance monitor tracks:
  - Request count and average, min and max duration
  - Latency percentiles (p50, p95, p99)
  - Rolling window of the maxMetrics most recent requests (constructor argument)
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Compression uses per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/api: Router and handlers this middleware wraps
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
