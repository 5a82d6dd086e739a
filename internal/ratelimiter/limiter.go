// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package ratelimiter

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/tablepulse/internal/cache"
	"github.com/tomtom215/tablepulse/internal/config"
)

// RouteClass names one of the four sliding-window presets a route is
// assigned to.
type RouteClass string

const (
	ClassStrict   RouteClass = "strict"
	ClassStandard RouteClass = "standard"
	ClassGenerous RouteClass = "generous"
	ClassBurst    RouteClass = "burst"
)

// Limiter decides whether a keyed caller may proceed under a route
// class's preset.
type Limiter interface {
	// Allow reports whether the call identified by key is permitted
	// under class's preset. When denied, retryAfter is a hint for the
	// Retry-After response header.
	Allow(class RouteClass, key string) (allowed bool, retryAfter time.Duration, err error)
	Close() error
}

// New builds a Limiter from cfg. An empty Backend disables limiting:
// the returned Limiter always allows.
func New(cfg config.RateLimitConfig) (Limiter, error) {
	switch cfg.Backend {
	case "":
		return noopLimiter{}, nil
	case "memory":
		return newMemoryLimiter(cfg), nil
	case "badger":
		return newBadgerLimiter(cfg)
	default:
		return nil, fmt.Errorf("ratelimiter: unknown backend %q", cfg.Backend)
	}
}

func presetFor(cfg config.RateLimitConfig, class RouteClass) config.RouteClassPreset {
	switch class {
	case ClassStrict:
		return cfg.Strict
	case ClassGenerous:
		return cfg.Generous
	case ClassBurst:
		return cfg.Burst
	default:
		return cfg.Standard
	}
}

type noopLimiter struct{}

func (noopLimiter) Allow(RouteClass, string) (bool, time.Duration, error) { return true, 0, nil }
func (noopLimiter) Close() error                                         { return nil }

// memoryLimiter tracks request counts in-process, one SlidingWindowStore
// per route class. It does not survive a restart and is not shared
// across instances; use the badger backend when either matters.
type memoryLimiter struct {
	cfg     config.RateLimitConfig
	stores  map[RouteClass]*cache.SlidingWindowStore
}

func newMemoryLimiter(cfg config.RateLimitConfig) *memoryLimiter {
	const buckets = 12
	m := &memoryLimiter{cfg: cfg, stores: make(map[RouteClass]*cache.SlidingWindowStore, 4)}
	for _, class := range []RouteClass{ClassStrict, ClassStandard, ClassGenerous, ClassBurst} {
		preset := presetFor(cfg, class)
		window := preset.Window
		if window <= 0 {
			window = time.Minute
		}
		m.stores[class] = cache.NewSlidingWindowStore(window, buckets, 0)
	}
	return m
}

func (m *memoryLimiter) Allow(class RouteClass, key string) (bool, time.Duration, error) {
	preset := presetFor(m.cfg, class)
	if preset.Requests <= 0 {
		return true, 0, nil
	}
	store := m.stores[class]
	if store == nil {
		return true, 0, nil
	}
	if store.Count(key) >= int64(preset.Requests) {
		return false, preset.Window, nil
	}
	store.Increment(key)
	return true, 0, nil
}

func (m *memoryLimiter) Close() error { return nil }

// KeyFromRequest derives the per-caller limiter key for r. It prefers
// the client IP; when uaFallback is set and the IP can't be parsed (a
// proxy stripped it, or the request didn't carry one), it falls back
// to combining the remote address with the User-Agent header so callers
// behind a shared NAT egress aren't all collapsed onto one bucket.
func KeyFromRequest(r *http.Request, uaFallback bool) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if host != "" && host != "unknown" {
		return host
	}
	if uaFallback {
		return r.RemoteAddr + "|" + r.UserAgent()
	}
	return r.RemoteAddr
}
