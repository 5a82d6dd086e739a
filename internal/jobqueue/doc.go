// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package jobqueue runs the DB-backed job orchestrator: a pool of
// Suture-supervised workers claim rows from storage with FOR UPDATE SKIP
// LOCKED, dispatch them to a per-type Handler, and requeue failures on a
// geometric backoff schedule. A periodic sweep resets jobs stuck in
// "running" past a stall timeout so a crashed worker never strands its
// claim forever.
package jobqueue
