package spatial

import (
	"fmt"
	"slices"

	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

// MatchPolicy selects how candidate training SDRs are filtered against a
// query.
type MatchPolicy string

const (
	// MatchGreedy scans the training SDRs once, left to right, keeping every
	// SDR whose overlap reaches the best overlap seen so far. The result
	// depends on scan order and maxFeatures is ignored.
	MatchGreedy MatchPolicy = "greedy"

	// MatchTopK keeps the maxFeatures SDRs with the highest overlap, ties in
	// scan order.
	MatchTopK MatchPolicy = "topk"
)

// ParseMatchPolicy converts a config string into a MatchPolicy. Empty means
// MatchGreedy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(s) {
	case "", MatchGreedy:
		return MatchGreedy, nil
	case MatchTopK:
		return MatchTopK, nil
	default:
		return "", fmt.Errorf("unknown match policy %q (want %q or %q)", s, MatchGreedy, MatchTopK)
	}
}

// GetMatchingFeatures returns the training SDRs that best match query under
// the given policy, in scan order for MatchGreedy and by descending overlap
// for MatchTopK.
func GetMatchingFeatures(training []sdr.SDR, query sdr.SDR, maxFeatures int, policy MatchPolicy) []sdr.SDR {
	if policy == MatchTopK {
		return topK(training, query, maxFeatures)
	}
	return greedy(training, query)
}

func greedy(training []sdr.SDR, query sdr.SDR) []sdr.SDR {
	threshold := 0
	var out []sdr.SDR
	for _, candidate := range training {
		n := sdr.Overlap(query, candidate)
		if n >= threshold {
			threshold = n
			out = append(out, candidate)
		}
	}
	return out
}

func topK(training []sdr.SDR, query sdr.SDR, k int) []sdr.SDR {
	if k <= 0 {
		return nil
	}

	type scored struct {
		sdr     sdr.SDR
		overlap int
	}
	all := make([]scored, len(training))
	for i, candidate := range training {
		all[i] = scored{sdr: candidate, overlap: sdr.Overlap(query, candidate)}
	}
	slices.SortStableFunc(all, func(a, b scored) int {
		return b.overlap - a.overlap
	})

	out := make([]sdr.SDR, 0, min(k, len(all)))
	for _, s := range all[:min(k, len(all))] {
		out = append(out, s.sdr)
	}
	return out
}
