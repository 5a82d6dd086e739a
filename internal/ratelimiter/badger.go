// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package ratelimiter

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tablepulse/internal/config"
)

// badgerLimiter implements Limiter as a fixed-window counter persisted
// in Badger: each (class, key) pair maps to a count that expires via
// Badger's native TTL at the end of the window. This trades the memory
// backend's true sliding window for a backend that survives restarts
// and can be pointed at a directory shared by several API instances on
// the same host.
type badgerLimiter struct {
	db  *badger.DB
	cfg config.RateLimitConfig
}

type windowRecord struct {
	Count int `json:"count"`
}

func newBadgerLimiter(cfg config.RateLimitConfig) (*badgerLimiter, error) {
	if cfg.BadgerDir == "" {
		return nil, errors.New("ratelimiter: badger backend requires badger_dir")
	}
	opts := badger.DefaultOptions(cfg.BadgerDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("ratelimiter: open badger store: %w", err)
	}
	return &badgerLimiter{db: db, cfg: cfg}, nil
}

func (b *badgerLimiter) Allow(class RouteClass, key string) (bool, time.Duration, error) {
	preset := presetFor(b.cfg, class)
	if preset.Requests <= 0 {
		return true, 0, nil
	}
	window := preset.Window
	if window <= 0 {
		window = time.Minute
	}
	storeKey := []byte(fmt.Sprintf("rl:%s:%s", class, key))

	allowed := true
	var retryAfter time.Duration

	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			rec := windowRecord{Count: 1}
			return setRecord(txn, storeKey, rec, window)
		case err != nil:
			return err
		}

		var rec windowRecord
		if valErr := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); valErr != nil {
			return valErr
		}

		if rec.Count >= preset.Requests {
			allowed = false
			remaining := time.Until(time.Unix(int64(item.ExpiresAt()), 0))
			if remaining < 0 {
				remaining = window
			}
			retryAfter = remaining
			return nil
		}

		rec.Count++
		remaining := time.Until(time.Unix(int64(item.ExpiresAt()), 0))
		if remaining <= 0 {
			remaining = window
		}
		return setRecord(txn, storeKey, rec, remaining)
	})
	if err != nil {
		return false, 0, fmt.Errorf("ratelimiter: badger update: %w", err)
	}
	return allowed, retryAfter, nil
}

func setRecord(txn *badger.Txn, key []byte, rec windowRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	entry := badger.NewEntry(key, raw).WithTTL(ttl)
	return txn.SetEntry(entry)
}

func (b *badgerLimiter) Close() error {
	return b.db.Close()
}
