package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sdrclassifier/internal/compact"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

// backends runs a test against both storage flavors.
func backends(t *testing.T, capacity int, fn func(t *testing.T, h *Bounded[string])) {
	t.Helper()
	for name, opts := range map[string][]Option{
		"slice":   {WithCapacity(capacity)},
		"compact": {WithCapacity(capacity), WithCompactStorage(5, 36)},
	} {
		t.Run(name, func(t *testing.T) {
			h, err := New[string](opts...)
			require.NoError(t, err)
			fn(t, h)
		})
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New[string](WithCapacity(0))
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New[string](WithCompactStorage(0, 10))
	assert.ErrorIs(t, err, compact.ErrInvalidOption)
}

func TestBounded_FIFOCap(t *testing.T) {
	backends(t, 3, func(t *testing.T, h *Bounded[string]) {
		var evictions int
		for i := 0; i < 5; i++ {
			out, err := h.Add("a", sdr.SDR{i, i + 100})
			require.NoError(t, err)
			assert.True(t, out.Inserted)
			if out.Evicted {
				evictions++
			}
		}

		assert.Equal(t, 2, evictions)
		got, err := h.Entries("a")
		require.NoError(t, err)
		assert.Equal(t, []sdr.SDR{{2, 102}, {3, 103}, {4, 104}}, got)
	})
}

func TestBounded_DedupScansWholeHistory(t *testing.T) {
	backends(t, 10, func(t *testing.T, h *Bounded[string]) {
		_, err := h.Add("a", sdr.SDR{1, 2})
		require.NoError(t, err)
		_, err = h.Add("a", sdr.SDR{3, 4})
		require.NoError(t, err)

		// Equal to the second entry, not the first.
		out, err := h.Add("a", sdr.SDR{4, 3})
		require.NoError(t, err)
		assert.False(t, out.Inserted)
		assert.Equal(t, 2, h.Len("a"))

		found, err := h.Contains("a", sdr.SDR{3, 4})
		require.NoError(t, err)
		assert.True(t, found)
	})
}

func TestBounded_DedupIdempotent(t *testing.T) {
	backends(t, 10, func(t *testing.T, h *Bounded[string]) {
		out, err := h.Add("a", sdr.SDR{5, 6, 7})
		require.NoError(t, err)
		assert.True(t, out.Created)

		out, err = h.Add("a", sdr.SDR{5, 6, 7})
		require.NoError(t, err)
		assert.Equal(t, Outcome{}, out)
		assert.Equal(t, 1, h.Len("a"))
	})
}

func TestBounded_LabelsInFirstSeenOrder(t *testing.T) {
	h, err := New[string]()
	require.NoError(t, err)

	for _, label := range []string{"zeta", "alpha", "zeta", "mid"} {
		_, err := h.Add(label, sdr.SDR{len(label)})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, h.Labels())
	assert.Equal(t, 3, h.Count())

	h.Clear()
	assert.Empty(t, h.Labels())
	assert.Equal(t, 0, h.Len("zeta"))
}

func TestBounded_Last(t *testing.T) {
	h, err := New[int]()
	require.NoError(t, err)

	_, err = h.Last(1)
	assert.ErrorIs(t, err, ErrUnknownLabel)
	_, err = h.Entries(1)
	assert.ErrorIs(t, err, ErrUnknownLabel)

	_, err = h.Add(1, sdr.SDR{1})
	require.NoError(t, err)
	_, err = h.Add(1, sdr.SDR{2})
	require.NoError(t, err)

	last, err := h.Last(1)
	require.NoError(t, err)
	assert.Equal(t, sdr.SDR{2}, last)
}

func TestBounded_CopiesInput(t *testing.T) {
	h, err := New[string]()
	require.NoError(t, err)

	in := sdr.SDR{1, 2, 3}
	_, err = h.Add("a", in)
	require.NoError(t, err)
	in[0] = 99

	got, err := h.Entries("a")
	require.NoError(t, err)
	assert.Equal(t, sdr.SDR{1, 2, 3}, got[0])

	got[0][1] = 77
	again, err := h.Entries("a")
	require.NoError(t, err)
	assert.Equal(t, sdr.SDR{1, 2, 3}, again[0])
}

func TestBounded_CompactRejectsWideIndex(t *testing.T) {
	h, err := New[string](WithCompactStorage(2, 10))
	require.NoError(t, err)

	_, err = h.Add("a", sdr.SDR{5, 100})
	assert.ErrorIs(t, err, compact.ErrFormat)
	assert.Empty(t, h.Labels(), "a failed first add must not register the label")
}
