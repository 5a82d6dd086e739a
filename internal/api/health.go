// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/tablepulse/internal/storage"
)

type viewHealth struct {
	View         string     `json:"view"`
	AgeHours     float64    `json:"age_hours"`
	RowCount     int        `json:"row_count"`
	LastRefresh  *time.Time `json:"last_refresh,omitempty"`
}

type citiesHealth struct {
	Total    int `json:"total"`
	Ranked   int `json:"ranked"`
	Unranked int `json:"unranked"`
}

type healthChecks struct {
	Database            string                  `json:"database"`
	MaterializedViews   []viewHealth            `json:"materialized_views"`
	JobQueueLast24h     []storage.JobOutcomeCounts `json:"job_queue_last_24h"`
	Cities              citiesHealth            `json:"cities"`
}

type healthResponse struct {
	Status    string       `json:"status"`
	Checks    healthChecks `json:"checks"`
	UptimeMs  int64        `json:"uptime_ms"`
}

// Health handles GET /health. It never caches and always returns 200 --
// the status field, not the HTTP status code, is what degrades, since a
// monitoring scraper should always get a body to inspect.
//
// @Summary      Service health
// @Description  Database reachability, materialized-view freshness, recent job outcomes, and onboarded-city counts.
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /health [get]
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w.Header().Set("Cache-Control", "no-store")

	status := "ok"
	dbStatus := "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "error"
	}

	views := make([]viewHealth, 0, 3)
	for _, view := range []string{storage.ViewIconic, storage.ViewTrending, storage.ViewCuisine} {
		vh := viewHealth{View: view}
		vv, err := h.store.GetProjectionVersion(r.Context(), view)
		switch {
		case err == nil:
			vh.RowCount = vv.RowCount
			vh.LastRefresh = &vv.RefreshedAt
			vh.AgeHours = time.Since(vv.RefreshedAt).Hours()
		case errors.Is(err, storage.ErrNoProjection):
			status = "degraded"
		default:
			status = "degraded"
		}
		views = append(views, vh)
	}

	jobCounts, err := h.store.Last24hJobCounts(r.Context())
	if err != nil {
		status = "degraded"
	}

	cities, _, err := h.store.ListCities(r.Context())
	var citiesStatus citiesHealth
	if err != nil {
		status = "degraded"
	} else {
		citiesStatus.Total = len(cities)
		for _, c := range cities {
			if c.Ranked {
				citiesStatus.Ranked++
			}
		}
		citiesStatus.Unranked = citiesStatus.Total - citiesStatus.Ranked
	}

	RespondData(w, r, http.StatusOK, healthResponse{
		Status: status,
		Checks: healthChecks{
			Database:          dbStatus,
			MaterializedViews: views,
			JobQueueLast24h:   jobCounts,
			Cities:            citiesStatus,
		},
		UptimeMs: time.Since(h.started).Milliseconds(),
	}, start)
}
