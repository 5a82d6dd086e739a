// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package match

import (
	"regexp"
	"strings"
)

// stopWords are common capitalized tokens (sentence starters, days,
// neighborhoods-as-filler) that are never restaurant names on their own and
// would otherwise dominate candidate extraction.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "i": true, "im": true,
	"we": true, "they": true, "it": true, "this": true, "that": true,
	"there": true, "here": true, "monday": true, "tuesday": true,
	"wednesday": true, "thursday": true, "friday": true, "saturday": true,
	"sunday": true, "today": true, "yesterday": true, "tonight": true,
	"downtown": true, "uptown": true, "anyone": true, "anywhere": true,
	"does": true, "has": true, "had": true, "just": true, "also": true, "went": true,
	"best": true, "worst": true, "good": true, "great": true, "amazing": true,
}

// capitalizedSpan matches a run of one or more capitalized words (each
// starting with an uppercase letter, optionally followed by lowercase
// letters, apostrophes or ampersands), e.g. "Franklin Barbecue" or "Katz's".
var capitalizedSpan = regexp.MustCompile(`\b[A-Z][a-zA-Z'&]*(?:\s+[A-Z][a-zA-Z'&]*)*\b`)

// quotedSpan matches text wrapped in straight or curly double quotes.
var quotedSpan = regexp.MustCompile(`["\x{201C}]([^"\x{201D}]+)["\x{201D}]`)

// ExtractCandidates returns normalized candidate name spans pulled from free
// text: quoted phrases and runs of capitalized words, filtered against the
// stopword list and against single/double-character spans. Order is stable and
// deduplicated so downstream matching doesn't query the same text twice.
func ExtractCandidates(text string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(raw string) {
		norm := Normalize(raw)
		if len(norm) <= 2 || stopWords[norm] || seen[norm] {
			return
		}
		seen[norm] = true
		out = append(out, norm)
	}

	for _, m := range quotedSpan.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range capitalizedSpan.FindAllString(text, -1) {
		if !stopWords[strings.ToLower(m)] {
			add(m)
		}
	}
	return out
}
