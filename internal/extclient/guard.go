// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package extclient

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tablepulse/internal/logging"
	"github.com/tomtom215/tablepulse/internal/metrics"
)

// Guard wraps one external collaborator's calls with a token-bucket rate
// limiter, exponential-backoff retry, and a circuit breaker, so the
// geocoder, open-map, and discussion clients all get the same resilience
// policy.
type Guard struct {
	name    string
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[any]
	retries uint64
}

// NewGuard builds a Guard for one named collaborator with the given steady
// rate (requests/sec) and a maximum retry count for transient failures.
func NewGuard(name string, ratePerSec float64, maxRetries uint64) *Guard {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			metrics.UpstreamCircuitState.WithLabelValues(cbName).Set(circuitStateValue(to))
			logging.Ctx(context.Background()).Warn().
				Str("collaborator", cbName).
				Str("from", circuitStateName(from)).
				Str("to", circuitStateName(to)).
				Msg("upstream circuit breaker state change")
		},
	})

	return &Guard{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		cb:      cb,
		retries: maxRetries,
	}
}

// Do runs fn under the limiter, circuit breaker, and a bounded exponential
// backoff retry loop, and records outcome metrics under the collaborator's
// name.
func Do[T any](ctx context.Context, g *Guard, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := g.limiter.Wait(ctx); err != nil {
		return zero, err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.retries), ctx)

	result, err := g.cb.Execute(func() (any, error) {
		var out T
		opErr := backoff.Retry(func() error {
			var innerErr error
			out, innerErr = fn(ctx)
			return innerErr
		}, bo)
		return out, opErr
	})

	if err != nil {
		outcome := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.UpstreamCallsTotal.WithLabelValues(g.name, outcome).Inc()
		return zero, err
	}

	metrics.UpstreamCallsTotal.WithLabelValues(g.name, "success").Inc()
	typed, ok := result.(T)
	if !ok {
		return zero, errors.New("extclient: unexpected result type from guarded call")
	}
	return typed, nil
}

func circuitStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func circuitStateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
