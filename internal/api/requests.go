// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/tablepulse/internal/validation"
)

// searchParams is the parsed query for GET /search. Bounds and enum
// constraints are enforced by validation.ValidateStruct against the
// struct tags below, after defaults have been applied and a limit above
// 100 has been clamped to 100.
type searchParams struct {
	City    string `validate:"required"`
	Type    string `validate:"required,oneof=iconic trending cuisine"`
	Cuisine string
	Limit   int `validate:"min=1,max=100"`
	Offset  int `validate:"min=0"`
}

func parseSearchParams(r *http.Request) (searchParams, error) {
	q := r.URL.Query()
	p := searchParams{
		City:    q.Get("city"),
		Type:    q.Get("type"),
		Cuisine: q.Get("cuisine"),
	}
	var err error
	if p.Limit, err = intParam(q, "limit", 50); err != nil {
		return p, err
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset, err = intParam(q, "offset", 0); err != nil {
		return p, err
	}
	if ve := validation.ValidateStruct(&p); ve != nil {
		return p, errFromValidation(ve)
	}
	return p, nil
}

// fuzzyParams is the parsed query for GET /fuzzy.
type fuzzyParams struct {
	Q     string `validate:"required,min=2"`
	City  string
	Limit int `validate:"min=1,max=50"`
}

func parseFuzzyParams(r *http.Request) (fuzzyParams, error) {
	q := r.URL.Query()
	p := fuzzyParams{Q: q.Get("q"), City: q.Get("city")}
	var err error
	if p.Limit, err = intParam(q, "limit", 20); err != nil {
		return p, err
	}
	if ve := validation.ValidateStruct(&p); ve != nil {
		return p, errFromValidation(ve)
	}
	return p, nil
}

type cuisinesParams struct {
	City  string `validate:"required"`
	Limit int    `validate:"min=1,max=100"`
}

func parseCuisinesParams(r *http.Request) (cuisinesParams, error) {
	q := r.URL.Query()
	p := cuisinesParams{City: q.Get("city")}
	var err error
	if p.Limit, err = intParam(q, "limit", 20); err != nil {
		return p, err
	}
	if ve := validation.ValidateStruct(&p); ve != nil {
		return p, errFromValidation(ve)
	}
	return p, nil
}

// intParam parses a query parameter as an integer, returning def if the
// parameter is absent or empty. Range checks are left to the caller's
// struct tags and validation.ValidateStruct.
func intParam(q map[string][]string, name string, def int) (int, error) {
	vals, ok := q[name]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return def, nil
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil {
		return 0, errInvalid(name, "must be an integer")
	}
	return n, nil
}

// errFromValidation adapts a struct-tag validation failure to the
// requestError shape the handlers already respond with.
func errFromValidation(ve *validation.RequestValidationError) *requestError {
	apiErr := ve.ToAPIError()
	return &requestError{status: http.StatusBadRequest, message: apiErr.Message, code: "invalid_request"}
}

// requestError carries the HTTP status and error code a handler should
// respond with for a malformed request.
type requestError struct {
	status  int
	message string
	code    string
}

func (e *requestError) Error() string { return e.message }

func errInvalid(field, reason string) error {
	return &requestError{status: http.StatusBadRequest, message: field + " is invalid: " + reason, code: "invalid_" + field}
}
