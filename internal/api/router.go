// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/middleware"
	"github.com/tomtom215/tablepulse/internal/ratelimiter"
	"github.com/tomtom215/tablepulse/internal/storage"
)

// asHandlerMiddleware adapts an http.HandlerFunc-based middleware to chi's
// func(http.Handler) http.Handler shape.
func asHandlerMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// NewRouter assembles the chi.Router serving /api/v2 plus /health and,
// when enabled, /metrics and the swagger UI.
func NewRouter(store *storage.Store, limiter ratelimiter.Limiter, cfg config.ServerConfig, rl config.RateLimitConfig, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "If-None-Match"},
		CORSExposedHeaders:   []string{"ETag"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
	}, limiter, rl.UAFallback)

	r.Use(chimiddleware.Recoverer)
	r.Use(RequestIDWithLogging())
	r.Use(APISecurityHeaders())
	r.Use(mw.CORS())
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(asHandlerMiddleware(middleware.PrometheusMetrics))
	r.Use(asHandlerMiddleware(middleware.Compression))

	h := NewHandlers(store, time.Now())

	r.Route("/api/v2", func(r chi.Router) {
		r.With(mw.RateLimit(ratelimiter.ClassStandard)).Get("/search", h.Search)
		r.With(mw.RateLimit(ratelimiter.ClassStrict)).Get("/fuzzy", h.Fuzzy)
		r.With(mw.RateLimit(ratelimiter.ClassGenerous)).Get("/places/{id}", h.PlaceDetail)
		r.With(mw.RateLimit(ratelimiter.ClassGenerous)).Get("/cities", h.Cities)
		r.With(mw.RateLimit(ratelimiter.ClassBurst)).Get("/cuisines", h.Cuisines)
	})

	r.With(mw.RateLimit(ratelimiter.ClassGenerous)).Get("/health", h.Health)

	if cfg.EnableMetrics && metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	if cfg.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	return r
}
