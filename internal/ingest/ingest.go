// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/tomtom215/tablepulse/internal/cache"
	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/discussion"
	"github.com/tomtom215/tablepulse/internal/logging"
	"github.com/tomtom215/tablepulse/internal/match"
	"github.com/tomtom215/tablepulse/internal/storage"
)

// resolveCacheCapacity and resolveCacheTTL bound the Ingester's cache of
// content hash to resolved place IDs, which is built once in New and kept
// across Run calls, so byte-identical copypasta repeated
// across a thread's comments is matched once instead of re-running
// candidate extraction and the stage pipeline for every repeat.
const (
	resolveCacheCapacity = 10000
	resolveCacheTTL      = time.Hour
)

var now = time.Now

type store interface {
	ListActiveSourcesByCity(ctx context.Context, cityID string) ([]storage.Source, error)
	InsertMention(ctx context.Context, m *storage.Mention) (bool, error)
	RecordSourceSync(ctx context.Context, name string, postsFetched int, at time.Time) error
	MarkCityRanked(ctx context.Context, cityID string) error
}

type matcher interface {
	Resolve(ctx context.Context, q match.Query) (*match.Result, error)
}

// Summary reports one Run's outcome. Errors holds one entry per source that
// failed, so a broken source never blocks the rest of the city.
type Summary struct {
	PostsFetched     int
	CommentsFetched  int
	MentionsInserted int
	Errors           []error
}

// Ingester pulls discussion threads for a city's sources and turns matched
// candidates into Mentions.
type Ingester struct {
	store    store
	source   discussion.Source
	matcher  matcher
	cfg      config.DiscussionConfig
	resolved *cache.LFUCacheGeneric[[]string]
}

// New builds an Ingester.
func New(s *storage.Store, src discussion.Source, m *match.Matcher, cfg config.DiscussionConfig) *Ingester {
	return &Ingester{
		store:    s,
		source:   src,
		matcher:  m,
		cfg:      cfg,
		resolved: cache.NewLFUCacheGeneric[[]string](resolveCacheCapacity, resolveCacheTTL),
	}
}

// Run fetches every active source for cityID, matches candidates against
// its gazetteer, and persists the matched Mentions. A source
// that errors is skipped, not fatal: the rest of the city still ingests.
func (ing *Ingester) Run(ctx context.Context, cityID string) (*Summary, error) {
	sources, err := ing.store.ListActiveSourcesByCity(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("list active sources for city %s: %w", cityID, err)
	}

	summary := &Summary{}
	for _, src := range sources {
		n, err := ing.runSource(ctx, cityID, src.Name, summary)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("source", src.Name).Msg("ingest source failed, skipping")
			summary.Errors = append(summary.Errors, fmt.Errorf("source %s: %w", src.Name, err))
			continue
		}
		if err := ing.store.RecordSourceSync(ctx, src.Name, n, now()); err != nil {
			return summary, fmt.Errorf("record sync for source %s: %w", src.Name, err)
		}
	}

	if summary.MentionsInserted > 0 {
		if err := ing.store.MarkCityRanked(ctx, cityID); err != nil {
			return summary, fmt.Errorf("mark city %s ranked: %w", cityID, err)
		}
	}
	return summary, nil
}

func (ing *Ingester) runSource(ctx context.Context, cityID, board string, summary *Summary) (int, error) {
	posts, err := ing.source.FetchTopPosts(ctx, board, ing.cfg.PostsPerWindow)
	if err != nil {
		return 0, fmt.Errorf("fetch top posts: %w", err)
	}
	summary.PostsFetched += len(posts)

	for _, post := range posts {
		inserted, err := ing.match(ctx, cityID, board, post.ID, nil, post.Text, post.Score, post.Timestamp, post.Permalink)
		if err != nil {
			return len(posts), fmt.Errorf("match post %s: %w", post.ID, err)
		}
		summary.MentionsInserted += inserted

		comments, err := ing.source.FetchComments(ctx, board, post.ID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("post_id", post.ID).Msg("fetch comments failed, skipping thread")
			continue
		}
		summary.CommentsFetched += len(comments)

		for _, c := range comments {
			commentID := c.ID
			inserted, err := ing.match(ctx, cityID, board, post.ID, &commentID, c.Text, c.Score, c.Timestamp, c.Permalink)
			if err != nil {
				return len(posts), fmt.Errorf("match comment %s: %w", c.ID, err)
			}
			summary.MentionsInserted += inserted
		}
	}
	return len(posts), nil
}

// match extracts place-name candidates from text, resolves each against the
// gazetteer, and inserts one Mention per distinct matched Place. The raw
// text is only ever used to extract candidates and compute the content
// hash; it is never itself persisted.
func (ing *Ingester) match(ctx context.Context, cityID, source, postID string, commentID *string, text string, score int, timestamp time.Time, permalink string) (int, error) {
	hash, length := hashText(text)
	inserted := 0

	placeIDs, err := ing.resolvePlaceIDs(ctx, cityID, hash, text)
	if err != nil {
		return 0, err
	}

	for _, placeID := range placeIDs {
		ok, err := ing.store.InsertMention(ctx, &storage.Mention{
			PlaceID:       &placeID,
			CityID:        cityID,
			Source:        source,
			PostID:        postID,
			CommentID:     commentID,
			Score:         score,
			Timestamp:     timestamp,
			Permalink:     permalink,
			ContentHash:   hash,
			ContentLength: length,
		})
		if err != nil {
			return inserted, fmt.Errorf("insert mention for place %s: %w", placeID, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

func hashText(text string) (hash string, length int) {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]), len(text)
}

// resolvePlaceIDs extracts place-name candidates from text and resolves
// each against the gazetteer, deduplicating repeated places within the
// same text. The result is cached by city+content hash so byte-identical
// text repeated across a thread's comments only runs the stage pipeline
// once; every occurrence still gets its own Mention row via the caller.
func (ing *Ingester) resolvePlaceIDs(ctx context.Context, cityID, hash, text string) ([]string, error) {
	cacheKey := cityID + ":" + hash
	if cached, ok := ing.resolved.Get(cacheKey); ok {
		return cached, nil
	}

	seen := make(map[string]bool)
	var placeIDs []string
	for _, candidate := range match.ExtractCandidates(text) {
		result, err := ing.matcher.Resolve(ctx, match.Query{CityID: cityID, Text: candidate})
		if err != nil {
			return nil, fmt.Errorf("resolve candidate %q: %w", candidate, err)
		}
		if result == nil || seen[result.Place.ID] {
			continue
		}
		seen[result.Place.ID] = true
		placeIDs = append(placeIDs, result.Place.ID)
	}

	ing.resolved.Set(cacheKey, placeIDs)
	return placeIDs, nil
}
