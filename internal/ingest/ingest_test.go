// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/tablepulse/internal/config"
	"github.com/tomtom215/tablepulse/internal/discussion"
	"github.com/tomtom215/tablepulse/internal/match"
	"github.com/tomtom215/tablepulse/internal/storage"
)

type fakeStore struct {
	sources       []storage.Source
	mentions      []storage.Mention
	syncedSources map[string]int
	rankedCities  map[string]bool
	listErr       error
	insertErr     error
}

func (f *fakeStore) ListActiveSourcesByCity(ctx context.Context, cityID string) ([]storage.Source, error) {
	return f.sources, f.listErr
}

func (f *fakeStore) InsertMention(ctx context.Context, m *storage.Mention) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	for _, existing := range f.mentions {
		if existing.PostID == m.PostID && ptrEq(existing.CommentID, m.CommentID) && ptrEq(existing.PlaceID, m.PlaceID) {
			return false, nil
		}
	}
	f.mentions = append(f.mentions, *m)
	return true, nil
}

func (f *fakeStore) RecordSourceSync(ctx context.Context, name string, postsFetched int, at time.Time) error {
	if f.syncedSources == nil {
		f.syncedSources = map[string]int{}
	}
	f.syncedSources[name] = postsFetched
	return nil
}

func (f *fakeStore) MarkCityRanked(ctx context.Context, cityID string) error {
	if f.rankedCities == nil {
		f.rankedCities = map[string]bool{}
	}
	f.rankedCities[cityID] = true
	return nil
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakeSource struct {
	posts    map[string][]discussion.Post
	comments map[string][]discussion.Comment
	postsErr error
}

func (f *fakeSource) FetchTopPosts(ctx context.Context, board string, limit int) ([]discussion.Post, error) {
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return f.posts[board], nil
}

func (f *fakeSource) FetchComments(ctx context.Context, board, postID string) ([]discussion.Comment, error) {
	return f.comments[postID], nil
}

type fakeMatcher struct {
	resolve func(ctx context.Context, q match.Query) (*match.Result, error)
}

func (f *fakeMatcher) Resolve(ctx context.Context, q match.Query) (*match.Result, error) {
	return f.resolve(ctx, q)
}

func TestRun_InsertsOneMentionPerDistinctMatchedPlace(t *testing.T) {
	st := &fakeStore{sources: []storage.Source{{Name: "food_city", CityID: "c1", IsActive: true}}}
	src := &fakeSource{
		posts: map[string][]discussion.Post{
			"food_city": {{ID: "p1", Text: `Best tacos at "Joe's Diner" downtown.`, Score: 10, Permalink: "/p1"}},
		},
	}
	mtr := &fakeMatcher{resolve: func(ctx context.Context, q match.Query) (*match.Result, error) {
		if q.Text == "joe s diner" || q.Text == "diner" {
			return &match.Result{Place: &storage.Place{ID: "place-1"}, Stage: match.StageAliasExact, Similarity: 1}, nil
		}
		return nil, nil
	}}

	ing := New(nil, src, nil, config.DiscussionConfig{PostsPerWindow: 10})
	ing.store = st
	ing.matcher = mtr

	summary, err := ing.Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.MentionsInserted != 1 {
		t.Fatalf("expected 1 mention (deduped across candidates), got %d", summary.MentionsInserted)
	}
	if !st.rankedCities["c1"] {
		t.Fatalf("expected city to be marked ranked after a successful ingest")
	}
}

func TestRun_SourceFailureDoesNotBlockOtherSources(t *testing.T) {
	st := &fakeStore{sources: []storage.Source{
		{Name: "broken", CityID: "c1", IsActive: true},
		{Name: "fine", CityID: "c1", IsActive: true},
	}}
	src := &fakeSource{
		postsErr: nil,
		posts: map[string][]discussion.Post{
			"fine": {{ID: "p2", Text: "Nothing notable here.", Score: 1}},
		},
	}
	// Override FetchTopPosts to fail only for "broken" via a wrapping matcher-free fake.
	failing := &failingBoardSource{fakeSource: src, failBoard: "broken", err: errors.New("upstream unavailable")}

	mtr := &fakeMatcher{resolve: func(ctx context.Context, q match.Query) (*match.Result, error) {
		return nil, nil
	}}

	ing := New(nil, failing, nil, config.DiscussionConfig{PostsPerWindow: 10})
	ing.store = st
	ing.matcher = mtr

	summary, err := ing.Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected top-level error: %v", err)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("expected exactly one isolated source error, got %d: %v", len(summary.Errors), summary.Errors)
	}
	if _, synced := st.syncedSources["fine"]; !synced {
		t.Fatalf("expected the healthy source to still sync")
	}
}

type failingBoardSource struct {
	*fakeSource
	failBoard string
	err       error
}

func (f *failingBoardSource) FetchTopPosts(ctx context.Context, board string, limit int) ([]discussion.Post, error) {
	if board == f.failBoard {
		return nil, f.err
	}
	return f.fakeSource.FetchTopPosts(ctx, board, limit)
}
