// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package discussion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tomtom215/tablepulse/internal/extclient"
)

// HTTPSource fetches posts and comments from a Reddit-compatible API using
// OAuth2 client-credentials.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
	guard      *extclient.Guard
}

// NewHTTPSource builds an OAuth-authenticated, rate-limited, circuit-broken
// discussion source client.
func NewHTTPSource(baseURL, tokenURL, clientID, clientSecret string, timeout time.Duration, ratePerSec float64) *HTTPSource {
	oauthCfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	ctx := context.Background()
	httpClient := oauthCfg.Client(ctx)
	httpClient.Timeout = timeout

	return &HTTPSource{
		httpClient: httpClient,
		baseURL:    baseURL,
		guard:      extclient.NewGuard("discussion", ratePerSec, 3),
	}
}

type apiListing struct {
	Data struct {
		Children []struct {
			Data apiThing `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type apiThing struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	LinkID    string `json:"link_id"`
	Title     string `json:"title"`
	Selftext  string `json:"selftext"`
	Body      string `json:"body"`
	Score     int    `json:"score"`
	CreatedAt int64  `json:"created_utc"`
	Permalink string `json:"permalink"`
}

// FetchTopPosts implements Source.
func (s *HTTPSource) FetchTopPosts(ctx context.Context, board string, limit int) ([]Post, error) {
	things, err := extclient.Do(ctx, s.guard, func(ctx context.Context) ([]apiThing, error) {
		return s.listing(ctx, fmt.Sprintf("/r/%s/top", board), limit)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch top posts for %s: %w", board, err)
	}

	posts := make([]Post, 0, len(things))
	for _, t := range things {
		posts = append(posts, Post{
			ID:        t.ID,
			Text:      t.Title + "\n" + t.Selftext,
			Score:     t.Score,
			Timestamp: time.Unix(t.CreatedAt, 0).UTC(),
			Permalink: t.Permalink,
		})
	}
	return posts, nil
}

// FetchComments implements Source.
func (s *HTTPSource) FetchComments(ctx context.Context, board, postID string) ([]Comment, error) {
	things, err := extclient.Do(ctx, s.guard, func(ctx context.Context) ([]apiThing, error) {
		return s.listing(ctx, fmt.Sprintf("/r/%s/comments/%s", board, postID), 0)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch comments for post %s: %w", postID, err)
	}

	comments := make([]Comment, 0, len(things))
	for _, t := range things {
		comments = append(comments, Comment{
			ID:        t.ID,
			PostID:    postID,
			Text:      t.Body,
			Score:     t.Score,
			Timestamp: time.Unix(t.CreatedAt, 0).UTC(),
			Permalink: t.Permalink,
		})
	}
	return comments, nil
}

func (s *HTTPSource) listing(ctx context.Context, path string, limit int) ([]apiThing, error) {
	reqURL := s.baseURL + path + ".json"
	if limit > 0 {
		reqURL = fmt.Sprintf("%s?limit=%d", reqURL, limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build discussion request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call discussion source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discussion source returned status %d", resp.StatusCode)
	}

	var listing apiListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode discussion response: %w", err)
	}

	things := make([]apiThing, 0, len(listing.Data.Children))
	for _, c := range listing.Data.Children {
		things = append(things, c.Data)
	}
	return things, nil
}
