package core

import (
	"fmt"
	"sort"
)

// OverlapPolicy decides what happens when matches of different kinds cover
// the same bytes
type OverlapPolicy string

const (
	// OverlapKeepAll keeps every match. Overlapping kinds are redacted
	// independently and may leave nested or garbled placeholders; this is a
	// known limitation on ambiguous input such as long digit runs.
	OverlapKeepAll OverlapPolicy = "keep_all"

	// OverlapLongestWins keeps the longest match of any overlapping group.
	// Ties go to the earlier start, then to the earlier catalog pattern.
	OverlapLongestWins OverlapPolicy = "longest_wins"
)

// ParseOverlapPolicy converts a configuration string into a policy
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch OverlapPolicy(s) {
	case "", OverlapKeepAll:
		return OverlapKeepAll, nil
	case OverlapLongestWins:
		return OverlapLongestWins, nil
	}
	return "", fmt.Errorf("unknown overlap policy %q", s)
}

// resolve filters hits according to the policy, preserving their order
func (p OverlapPolicy) resolve(hits []hit) []hit {
	if p != OverlapLongestWins || len(hits) < 2 {
		return hits
	}

	ranked := make([]int, len(hits))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		ha, hb := hits[ranked[a]], hits[ranked[b]]
		if ha.span.Len() != hb.span.Len() {
			return ha.span.Len() > hb.span.Len()
		}
		if ha.span.Start != hb.span.Start {
			return ha.span.Start < hb.span.Start
		}
		return ha.pattern < hb.pattern
	})

	keep := make([]bool, len(hits))
	var kept []Span
	for _, idx := range ranked {
		candidate := hits[idx].span
		conflict := false
		for _, s := range kept {
			if s.Overlaps(candidate) {
				conflict = true
				break
			}
		}
		if !conflict {
			keep[idx] = true
			kept = append(kept, candidate)
		}
	}

	out := make([]hit, 0, len(kept))
	for i, h := range hits {
		if keep[i] {
			out = append(out, h)
		}
	}
	return out
}
