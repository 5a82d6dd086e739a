// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

//go:build !nats

// Build without NATS-backed wake notification (default):
//
//	go build ./cmd/worker

package jobqueue

import "context"

// NewNATSWake is a no-op stub for non-NATS builds; it returns
// NewNoopWake(). Keeping the signature identical lets cmd/worker call this
// unconditionally regardless of build tags.
func NewNATSWake(ctx context.Context, url string) (WakeNotifier, error) {
	return NewNoopWake(), nil
}
