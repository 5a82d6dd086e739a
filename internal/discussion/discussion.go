// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

// Package discussion fetches ranked posts and comment trees from a
// crowd-sourced discussion source via OAuth client-credentials. Only metadata and permalinks are ever retained by callers; the raw
// text never leaves this package's return values before being hashed.
package discussion

import (
	"context"
	"time"
)

// Post is one top-level discussion thread.
type Post struct {
	ID        string
	Text      string // title + body, discarded by the caller after hashing
	Score     int
	Timestamp time.Time
	Permalink string
}

// Comment is one reply within a Post's comment tree.
type Comment struct {
	ID        string
	PostID    string
	Text      string
	Score     int
	Timestamp time.Time
	Permalink string
}

// Source fetches posts and comments for one named board (e.g. a
// subreddit).
type Source interface {
	// FetchTopPosts returns up to limit recent/top posts for board.
	FetchTopPosts(ctx context.Context, board string, limit int) ([]Post, error)
	// FetchComments returns the comments listed directly under a post;
	// replies nested below those comments are not walked or returned.
	FetchComments(ctx context.Context, board, postID string) ([]Comment, error)
}
