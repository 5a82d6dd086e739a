// Tablepulse - Crowd-Sourced Restaurant Ranking Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablepulse

package scoring

import "math"

// wilsonLowerBound computes the Wilson score lower bound for a proportion p
// observed over a sample of size n, clamped to [0,1]. It is the
// conservative confidence-interval estimate used to keep places with few
// mentions from outranking well-established ones purely on a lucky ratio.
func wilsonLowerBound(p, z, n float64) float64 {
	if n <= 0 {
		return 0
	}
	denom := 1 + z*z/n
	center := p + z*z/(2*n)
	margin := z * math.Sqrt((p*(1-p)+z*z/(4*n))/n)
	wilson := (center - margin) / denom
	if wilson < 0 {
		return 0
	}
	if wilson > 1 {
		return 1
	}
	return wilson
}
