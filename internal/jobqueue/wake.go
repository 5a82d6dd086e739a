// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package jobqueue

// WakeNotifier lets Enqueue callers nudge idle workers instead of waiting
// for the next poll tick. Notify is best-effort: a dropped wake just means
// the job is picked up on the next poll, never a correctness problem --
// it is an optimization, not a delivery guarantee.
type WakeNotifier interface {
	// Notify signals that at least one job became claimable.
	Notify()
	// Chan returns the channel workers select on; closed/nil-safe.
	Chan() <-chan struct{}
	// Close releases the underlying transport.
	Close() error
}

// noopWake is the WakeNotifier used when wake notification is disabled
// (config.JobConfig.WakeEnabled == false); workers then rely solely on
// PollInterval.
type noopWake struct {
	ch chan struct{}
}

// NewNoopWake builds a WakeNotifier whose channel never fires.
func NewNoopWake() WakeNotifier {
	return &noopWake{ch: make(chan struct{})}
}

func (n *noopWake) Notify()               {}
func (n *noopWake) Chan() <-chan struct{} { return n.ch }
func (n *noopWake) Close() error          { return nil }
