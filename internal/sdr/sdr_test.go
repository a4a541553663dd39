package sdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b SDR
		want int
	}{
		{"disjoint", SDR{1, 2}, SDR{3, 4}, 0},
		{"partial", SDR{1, 2, 3}, SDR{2, 3, 4}, 2},
		{"order ignored", SDR{3, 2, 1}, SDR{1, 2, 3}, 3},
		{"duplicates counted once", SDR{1, 1, 2}, SDR{1, 2, 2}, 2},
		{"empty", SDR{}, SDR{1}, 0},
		{"nil", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlap(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlap(tt.b, tt.a))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity(SDR{1, 2, 3}, SDR{3, 2, 1}))
	assert.Equal(t, 0.0, Similarity(SDR{1}, SDR{2}))
	assert.Equal(t, 0.0, Similarity(nil, SDR{}))
	assert.InDelta(t, 2.0/3.0, Similarity(SDR{1, 2, 4}, SDR{1, 2, 3}), 1e-9)
	// Normalized by the larger set.
	assert.InDelta(t, 0.5, Similarity(SDR{1, 2}, SDR{1, 2, 3, 4}), 1e-9)
	assert.InDelta(t, 0.5, Similarity(SDR{1, 2, 3, 4}, SDR{1, 2}), 1e-9)
}

func TestSimilarity_MonotonicInOverlap(t *testing.T) {
	query := SDR{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	prev := -1.0
	for n := 0; n <= len(query); n++ {
		candidate := SDR{}
		for i := 0; i < n; i++ {
			candidate = append(candidate, i)
		}
		for i := n; i < len(query); i++ {
			candidate = append(candidate, 100+i)
		}
		got := Similarity(candidate, query)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
		assert.Greater(t, got, prev)
		prev = got
	}
}

func TestEqualAndKey(t *testing.T) {
	assert.True(t, Equal(SDR{3, 1, 2}, SDR{1, 2, 3}))
	assert.True(t, Equal(SDR{1, 1, 2}, SDR{2, 1}))
	assert.True(t, Equal(nil, SDR{}))
	assert.False(t, Equal(SDR{1, 2}, SDR{1, 2, 3}))
	assert.Equal(t, "1,2,3", Key(SDR{3, 2, 1, 2}))
}

func TestKey_DoesNotMutateInput(t *testing.T) {
	s := SDR{5, 1, 3}
	_ = Key(s)
	assert.Equal(t, SDR{5, 1, 3}, s)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(SDR{0, 1, 2}))
	assert.NoError(t, Validate(nil))
	assert.ErrorIs(t, Validate(SDR{1, -2}), ErrNegativeIndex)
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 66.67, RoundPercent(2.0/3.0))
	assert.Equal(t, 100.0, RoundPercent(1))
	assert.Equal(t, 0.0, RoundPercent(0))
	assert.Equal(t, 12.35, RoundPercent(0.123456))
}

func TestString(t *testing.T) {
	assert.Equal(t, "3, 1, 2", String(SDR{3, 1, 2}))
	assert.Equal(t, "", String(nil))
}
