// Package sdr provides set arithmetic over sparse distributed representations.
//
// An SDR is the list of active index positions produced by an upstream
// encoder or pooler. Storage keeps insertion order, but equality, overlap and
// similarity treat the indices as a set: duplicates and ordering are ignored.
package sdr

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrNegativeIndex is returned when an SDR holds a negative index.
var ErrNegativeIndex = errors.New("sdr index must be non-negative")

// SDR is a sparse set of active indices.
type SDR []int

// Validate reports the first negative index in s.
func Validate(s SDR) error {
	for i, v := range s {
		if v < 0 {
			return fmt.Errorf("%w: position %d holds %d", ErrNegativeIndex, i, v)
		}
	}
	return nil
}

// Clone returns a copy of s that shares no memory with it.
func Clone(s SDR) SDR {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// set returns the distinct indices of s.
func set(s SDR) map[int]struct{} {
	m := make(map[int]struct{}, len(s))
	for _, v := range s {
		m[v] = struct{}{}
	}
	return m
}

// Size returns the number of distinct indices in s.
func Size(s SDR) int {
	return len(set(s))
}

// Overlap returns the size of the intersection of a and b.
func Overlap(a, b SDR) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	lookup := set(large)
	n := 0
	for v := range set(small) {
		if _, ok := lookup[v]; ok {
			n++
		}
	}
	return n
}

// Similarity returns Overlap(a, b) divided by the larger distinct size of
// the two. It is 0 when both are empty and 1 only for equal sets.
func Similarity(a, b SDR) float64 {
	denom := max(Size(a), Size(b))
	if denom == 0 {
		return 0
	}
	return float64(Overlap(a, b)) / float64(denom)
}

// Equal reports whether a and b hold the same set of indices.
func Equal(a, b SDR) bool {
	return Key(a) == Key(b)
}

// Key returns a canonical string for the set of indices in s, usable as a
// map key. Equal sets produce equal keys.
func Key(s SDR) string {
	sorted := slices.Clone(s)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	for i, v := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// String renders s in stored order as comma-separated indices.
func String(s SDR) string {
	var b strings.Builder
	for i, v := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// RoundPercent converts a [0,1] ratio to a percentage rounded to two
// decimal places.
func RoundPercent(ratio float64) float64 {
	return math.Round(ratio*100*100) / 100
}
