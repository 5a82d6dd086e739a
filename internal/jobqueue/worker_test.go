// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/storage"
)

type fakeJobStore struct {
	mu        sync.Mutex
	queue     []*storage.Job
	completed []string
	failed    []string
}

func (f *fakeJobStore) Claim(ctx context.Context, types []string) (*storage.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, nil
	}
	job := f.queue[0]
	f.queue = f.queue[1:]
	return job, nil
}

func (f *fakeJobStore) Complete(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, jobID)
	return nil
}

func (f *fakeJobStore) Fail(ctx context.Context, jobID string, cause error, maxAttempts int, backoff []time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, jobID)
	return nil
}

func TestWorker_ClaimAndRunCompletesOnSuccess(t *testing.T) {
	st := &fakeJobStore{queue: []*storage.Job{{ID: "j1", Type: "ping"}}}
	ran := false
	registry := Registry{"ping": func(ctx context.Context, job *storage.Job) error {
		ran = true
		return nil
	}}
	w := &worker{name: "test", store: st, registry: registry, cfg: config.JobConfig{}, wake: make(chan struct{})}

	if !w.claimAndRun(context.Background()) {
		t.Fatal("expected claimAndRun to report a claimed job")
	}
	if !ran {
		t.Fatal("expected handler to run")
	}
	if len(st.completed) != 1 || st.completed[0] != "j1" {
		t.Fatalf("expected job j1 to be completed, got %v", st.completed)
	}
}

func TestWorker_ClaimAndRunFailsJobOnHandlerError(t *testing.T) {
	st := &fakeJobStore{queue: []*storage.Job{{ID: "j2", Type: "ping"}}}
	registry := Registry{"ping": func(ctx context.Context, job *storage.Job) error {
		return errors.New("boom")
	}}
	w := &worker{name: "test", store: st, registry: registry, cfg: config.JobConfig{MaxAttempts: 3, Backoff: []time.Duration{time.Second}}, wake: make(chan struct{})}

	w.claimAndRun(context.Background())

	if len(st.failed) != 1 || st.failed[0] != "j2" {
		t.Fatalf("expected job j2 to be failed, got %v", st.failed)
	}
	if len(st.completed) != 0 {
		t.Fatalf("expected no completions, got %v", st.completed)
	}
}

func TestWorker_ClaimAndRunReturnsFalseWhenQueueEmpty(t *testing.T) {
	st := &fakeJobStore{}
	w := &worker{name: "test", store: st, registry: Registry{}, cfg: config.JobConfig{}, wake: make(chan struct{})}

	if w.claimAndRun(context.Background()) {
		t.Fatal("expected no job to be claimed from an empty queue")
	}
}

func TestWorker_UnregisteredTypeFailsRatherThanPanics(t *testing.T) {
	st := &fakeJobStore{queue: []*storage.Job{{ID: "j3", Type: "unknown"}}}
	w := &worker{name: "test", store: st, registry: Registry{}, cfg: config.JobConfig{MaxAttempts: 3, Backoff: []time.Duration{time.Second}}, wake: make(chan struct{})}

	if !w.claimAndRun(context.Background()) {
		t.Fatal("expected claimAndRun to report the claimed job even without a handler")
	}
	if len(st.failed) != 1 {
		t.Fatalf("expected unregistered type to be recorded as a failure, got %v", st.failed)
	}
}

func TestRegistry_TypesReturnsAllKeys(t *testing.T) {
	r := Registry{"a": nil, "b": nil, "c": nil}
	types := r.Types()
	if len(types) != 3 {
		t.Fatalf("expected 3 types, got %d", len(types))
	}
}
