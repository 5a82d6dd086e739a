// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tablepulse/internal/storage"
)

// Handlers implements the five read-only operations over a *storage.Store.
// It never calls the matcher or ingester -- the Read API only ever consults
// Projections or base tables.
type Handlers struct {
	store   *storage.Store
	started time.Time
}

// NewHandlers builds a Handlers over store. started is the process start
// time, used to report uptime_ms from Health.
func NewHandlers(store *storage.Store, started time.Time) *Handlers {
	return &Handlers{store: store, started: started}
}

func viewForType(t string) string {
	switch t {
	case "iconic":
		return storage.ViewIconic
	case "trending":
		return storage.ViewTrending
	case "cuisine":
		return storage.ViewCuisine
	default:
		return ""
	}
}

// Search handles GET /search.
//
// @Summary      Search ranked places in a city
// @Description  Returns a city's places ordered by the requested ranking. Falls back to an unranked OSM listing if the city hasn't completed its first aggregation pass yet.
// @Tags         search
// @Produce      json
// @Param        city     query     string  true   "city name or slug"
// @Param        type     query     string  true   "iconic, trending, or cuisine"
// @Param        cuisine  query     string  false  "cuisine facet filter (array containment), applied with any type"
// @Param        limit    query     int     false  "page size, 1-100"  default(50)
// @Param        offset   query     int     false  "page offset"        default(0)
// @Success      200  {object}  searchResponse
// @Failure      400  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /api/v2/search [get]
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := parseSearchParams(r)
	if err != nil {
		respondRequestError(w, err)
		return
	}

	city, err := h.store.ResolveCity(r.Context(), params.City)
	if err != nil {
		respondStorageError(w, err, "city not found", "city_not_found")
		return
	}

	if !city.Ranked {
		places, total, err := h.store.ListOpenPlacesByCity(r.Context(), city.ID, params.Limit, params.Offset)
		if err != nil {
			respondStorageError(w, err, "failed to list places", "storage_error")
			return
		}
		WriteCacheHeaders(w, r, "", "public, max-age=300, stale-while-revalidate=3600")
		RespondData(w, r, http.StatusOK, searchResponse{
			Ranked:     false,
			RankSource: "unranked_osm",
			Results:    placesToResults(places),
			Pagination: pagination{Offset: params.Offset, Limit: params.Limit, Total: total, HasMore: params.Offset+len(places) < total},
		}, start)
		return
	}

	view := viewForType(params.Type)
	version, err := h.store.GetProjectionVersion(r.Context(), view)
	if err != nil && !errors.Is(err, storage.ErrNoProjection) {
		respondStorageError(w, err, "failed to load projection version", "storage_error")
		return
	}
	versionHash := ""
	var lastRefreshed *time.Time
	if version != nil {
		versionHash = version.VersionHash
		lastRefreshed = &version.RefreshedAt
	}

	etag := ETag(versionHash, city.ID, params.Type, params.Cuisine, params.Offset, params.Limit)
	if notModified := WriteCacheHeaders(w, r, etag, "public, max-age=3600, stale-while-revalidate=86400"); notModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	rows, total, err := h.store.QueryRankedProjection(r.Context(), view, city.ID, params.Cuisine, params.Limit, params.Offset)
	if err != nil {
		respondStorageError(w, err, "failed to query ranked projection", "storage_error")
		return
	}

	RespondData(w, r, http.StatusOK, searchResponse{
		Ranked:          true,
		RankSource:      "mv_" + params.Type,
		LastRefreshedAt: lastRefreshed,
		Results:         rows,
		Pagination:      pagination{Offset: params.Offset, Limit: params.Limit, Total: total, HasMore: params.Offset+len(rows) < total},
	}, start)
}

// Fuzzy handles GET /fuzzy.
//
// @Summary      Typo-tolerant place search
// @Description  Trigram similarity search over place names, optionally scoped to a city.
// @Tags         search
// @Produce      json
// @Param        q      query     string  true   "search text, at least 2 characters"
// @Param        city   query     string  false  "city name or slug to scope the search"
// @Param        limit  query     int     false  "page size, 1-50"  default(20)
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /api/v2/fuzzy [get]
func (h *Handlers) Fuzzy(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := parseFuzzyParams(r)
	if err != nil {
		respondRequestError(w, err)
		return
	}

	var cityID string
	if params.City != "" {
		city, err := h.store.ResolveCity(r.Context(), params.City)
		if err != nil {
			respondStorageError(w, err, "city not found", "city_not_found")
			return
		}
		cityID = city.ID
	}

	const threshold = 0.55
	cands, err := h.store.FuzzySearch(r.Context(), params.Q, cityID, threshold, params.Limit)
	if err != nil {
		respondStorageError(w, err, "failed to run fuzzy search", "storage_error")
		return
	}

	WriteCacheHeaders(w, r, "", "public, max-age=300")
	RespondData(w, r, http.StatusOK, map[string]any{"results": cands}, start)
}

// PlaceDetail handles GET /places/{id}.
//
// @Summary      Get one place's detail, ranking, and recent mentions
// @Tags         places
// @Produce      json
// @Param        id   path      string  true  "place ID"
// @Success      200  {object}  placeDetailResponse
// @Failure      404  {object}  errorEnvelope
// @Router       /api/v2/places/{id} [get]
func (h *Handlers) PlaceDetail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	place, err := h.store.GetPlace(r.Context(), id)
	if err != nil {
		respondStorageError(w, err, "place not found", "place_not_found")
		return
	}
	city, err := h.store.GetCity(r.Context(), place.CityID)
	if err != nil {
		respondStorageError(w, err, "city not found", "city_not_found")
		return
	}
	agg, err := h.store.GetAggregation(r.Context(), id)
	if err != nil {
		respondStorageError(w, err, "failed to load aggregation", "storage_error")
		return
	}
	mentions, err := h.store.RecentMentionsByPlace(r.Context(), id, 10)
	if err != nil {
		respondStorageError(w, err, "failed to load recent mentions", "storage_error")
		return
	}

	WriteCacheHeaders(w, r, "", "public, max-age=600")
	RespondData(w, r, http.StatusOK, placeDetailResponse{
		Place:           place,
		City:            city,
		Aggregation:     agg,
		RecentMentions:  mentions,
	}, start)
}

// Cities handles GET /cities.
//
// @Summary      List onboarded cities
// @Description  Lists every city bootstrapped so far, with per-city place/mention stats and whether it has completed its first ranking pass.
// @Tags         cities
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /api/v2/cities [get]
func (h *Handlers) Cities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cities, stats, err := h.store.ListCities(r.Context())
	if err != nil {
		respondStorageError(w, err, "failed to list cities", "storage_error")
		return
	}

	items := make([]cityListItem, 0, len(cities))
	rankedCount := 0
	for _, c := range cities {
		if c.Ranked {
			rankedCount++
		}
		items = append(items, cityListItem{City: c, Stats: stats[c.ID]})
	}

	WriteCacheHeaders(w, r, "", "public, max-age=300")
	RespondData(w, r, http.StatusOK, map[string]any{
		"cities":       items,
		"total":        len(items),
		"ranked_count": rankedCount,
	}, start)
}

// Cuisines handles GET /cuisines.
//
// @Summary      List a city's cuisine facets
// @Description  Returns cuisine tags observed among a city's ranked places, with per-facet place counts, for populating the type=cuisine filter.
// @Tags         search
// @Produce      json
// @Param        city   query     string  true   "city name or slug"
// @Param        limit  query     int     false  "page size, 1-100"  default(20)
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /api/v2/cuisines [get]
func (h *Handlers) Cuisines(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := parseCuisinesParams(r)
	if err != nil {
		respondRequestError(w, err)
		return
	}

	city, err := h.store.ResolveCity(r.Context(), params.City)
	if err != nil {
		respondStorageError(w, err, "city not found", "city_not_found")
		return
	}

	facets, err := h.store.QueryCuisineFacets(r.Context(), city.ID, params.Limit)
	if err != nil {
		respondStorageError(w, err, "failed to query cuisine facets", "storage_error")
		return
	}

	WriteCacheHeaders(w, r, "", "public, max-age=300")
	RespondData(w, r, http.StatusOK, map[string]any{"cuisines": facets}, start)
}

func respondRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		RespondError(w, reqErr.status, reqErr.message, reqErr.code)
		return
	}
	RespondError(w, http.StatusBadRequest, err.Error(), "bad_request")
}

func respondStorageError(w http.ResponseWriter, err error, notFoundMsg, notFoundCode string) {
	switch {
	case errors.Is(err, storage.ErrCityNotFound), errors.Is(err, storage.ErrPlaceNotFound):
		RespondError(w, http.StatusNotFound, notFoundMsg, notFoundCode)
	default:
		RespondError(w, http.StatusServiceUnavailable, "storage unavailable", "storage_error")
	}
}

type pagination struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

type searchResponse struct {
	Ranked          bool       `json:"ranked"`
	RankSource      string     `json:"rank_source"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	Results         any        `json:"results"`
	Pagination      pagination `json:"pagination"`
}

type placeDetailResponse struct {
	Place          *storage.Place             `json:"place"`
	City           *storage.City              `json:"city"`
	Aggregation    *storage.PlaceAggregation  `json:"aggregation,omitempty"`
	RecentMentions []storage.Mention          `json:"recent_mentions"`
}

type cityListItem struct {
	storage.City
	Stats storage.CityStats `json:"stats"`
}

func placesToResults(places []storage.Place) []unrankedResult {
	out := make([]unrankedResult, 0, len(places))
	for _, p := range places {
		out = append(out, unrankedResult{
			PlaceID: p.ID, Name: p.Name, Cuisine: p.Cuisine, Address: p.Address, Lat: p.Lat, Lon: p.Lon,
		})
	}
	return out
}

type unrankedResult struct {
	PlaceID string   `json:"place_id"`
	Name    string   `json:"name"`
	Cuisine []string `json:"cuisine"`
	Address *string  `json:"address,omitempty"`
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
}
