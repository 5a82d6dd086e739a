// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package jobqueue

import (
	"context"

	"github.com/tomtom215/tablepulse/internal/storage"
)

// Handler executes one claimed Job. A returned error causes the job to be
// requeued with backoff (or marked terminal past max attempts); a nil
// error marks it done.
type Handler func(ctx context.Context, job *storage.Job) error

// Registry maps a job type to the Handler that executes it. Claim is
// restricted to the registered types, so a worker never claims work it
// cannot perform.
type Registry map[string]Handler

// Types returns the registered job types for workers to offer to Claim.
// The order follows map iteration and is not defined.
func (r Registry) Types() []string {
	types := make([]string, 0, len(r))
	for t := range r {
		types = append(types, t)
	}
	return types
}
