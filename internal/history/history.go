// Package history keeps a bounded, per-label record of recently learned SDRs.
//
// Each label owns a FIFO of at most Capacity distinct SDRs, oldest first.
// Adding an SDR already present under the label (by set equality, scanning
// the whole history) is a no-op; adding past capacity evicts the single
// oldest entry. Labels are remembered in first-seen order so callers can
// iterate deterministically.
//
// Labels are compared with Go ==. Pointer labels compare by identity, so use
// value types when two distinct values should address the same history.
package history

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sdrclassifier/internal/compact"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

// DefaultCapacity is the number of SDRs kept per label.
const DefaultCapacity = 10

var (
	// ErrUnknownLabel is returned when a label has never been added.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrInvalidCapacity is returned by New for a capacity below one.
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
)

// store is the per-label sequence storage. *compact.List satisfies it.
type store interface {
	Append(seq []int) error
	Get(index int) ([]int, error)
	RemoveAt(index int) error
	Len() int
}

// Outcome describes what Add did.
type Outcome struct {
	Created  bool // the label was seen for the first time
	Inserted bool // the SDR was stored
	Evicted  bool // the oldest SDR was dropped to honor capacity
}

// Option configures a Bounded history.
type Option func(*options)

type options struct {
	capacity int
	compact  bool
	width    int
	radix    int
}

// WithCapacity sets the maximum number of SDRs per label.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithCompactStorage stores each label's SDRs in a compact.List using the
// given digit width and radix.
func WithCompactStorage(width, radix int) Option {
	return func(o *options) {
		o.compact = true
		o.width = width
		o.radix = radix
	}
}

// Bounded maps labels to their most recent SDRs.
type Bounded[L comparable] struct {
	capacity int
	newStore func() (store, error)
	entries  map[L]store
	order    []L
}

// New creates an empty history.
func New[L comparable](opts ...Option) (*Bounded[L], error) {
	o := options{
		capacity: DefaultCapacity,
		width:    compact.DefaultWidth,
		radix:    compact.DefaultRadix,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, o.capacity)
	}

	newStore := func() (store, error) { return &sliceStore{}, nil }
	if o.compact {
		// Validate width and radix up front rather than on first Add.
		if _, err := compact.New(compact.WithWidth(o.width), compact.WithRadix(o.radix)); err != nil {
			return nil, err
		}
		width, radix := o.width, o.radix
		newStore = func() (store, error) {
			return compact.New(compact.WithWidth(width), compact.WithRadix(radix))
		}
	}

	return &Bounded[L]{
		capacity: o.capacity,
		newStore: newStore,
		entries:  make(map[L]store),
	}, nil
}

// Capacity returns the per-label cap.
func (b *Bounded[L]) Capacity() int { return b.capacity }

// Add records s under label unless an equal SDR is already stored there.
func (b *Bounded[L]) Add(label L, s sdr.SDR) (Outcome, error) {
	var out Outcome

	st, ok := b.entries[label]
	if !ok {
		fresh, err := b.newStore()
		if err != nil {
			return out, err
		}
		if err := fresh.Append(sdr.Clone(s)); err != nil {
			return out, err
		}
		b.entries[label] = fresh
		b.order = append(b.order, label)
		return Outcome{Created: true, Inserted: true}, nil
	}

	found, err := contains(st, s)
	if err != nil {
		return out, err
	}
	if !found {
		if err := st.Append(sdr.Clone(s)); err != nil {
			return out, err
		}
		out.Inserted = true
	}

	if st.Len() > b.capacity {
		if err := st.RemoveAt(0); err != nil {
			return out, err
		}
		out.Evicted = true
	}
	return out, nil
}

// Contains reports whether s is stored under label.
func (b *Bounded[L]) Contains(label L, s sdr.SDR) (bool, error) {
	st, ok := b.entries[label]
	if !ok {
		return false, nil
	}
	return contains(st, s)
}

// Entries returns the SDRs stored under label, oldest first.
func (b *Bounded[L]) Entries(label L) ([]sdr.SDR, error) {
	st, ok := b.entries[label]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownLabel, label)
	}
	out := make([]sdr.SDR, 0, st.Len())
	for i := 0; i < st.Len(); i++ {
		seq, err := st.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, sdr.Clone(seq))
	}
	return out, nil
}

// Last returns the most recently stored SDR under label.
func (b *Bounded[L]) Last(label L) (sdr.SDR, error) {
	st, ok := b.entries[label]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownLabel, label)
	}
	seq, err := st.Get(st.Len() - 1)
	if err != nil {
		return nil, err
	}
	return sdr.Clone(seq), nil
}

// Len returns the number of SDRs stored under label.
func (b *Bounded[L]) Len(label L) int {
	if st, ok := b.entries[label]; ok {
		return st.Len()
	}
	return 0
}

// Labels returns every known label in first-seen order.
func (b *Bounded[L]) Labels() []L {
	out := make([]L, len(b.order))
	copy(out, b.order)
	return out
}

// Count returns the number of known labels.
func (b *Bounded[L]) Count() int { return len(b.order) }

// Clear forgets every label.
func (b *Bounded[L]) Clear() {
	b.entries = make(map[L]store)
	b.order = nil
}

func contains(st store, s sdr.SDR) (bool, error) {
	key := sdr.Key(s)
	for i := 0; i < st.Len(); i++ {
		seq, err := st.Get(i)
		if err != nil {
			return false, err
		}
		if sdr.Key(seq) == key {
			return true, nil
		}
	}
	return false, nil
}

// sliceStore keeps SDRs as plain slices.
type sliceStore struct {
	items [][]int
}

func (s *sliceStore) Append(seq []int) error {
	s.items = append(s.items, seq)
	return nil
}

func (s *sliceStore) Get(index int) ([]int, error) {
	if index < 0 || index >= len(s.items) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", compact.ErrIndexOutOfRange, index, len(s.items))
	}
	return s.items[index], nil
}

func (s *sliceStore) RemoveAt(index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d not in [0, %d)", compact.ErrIndexOutOfRange, index, len(s.items))
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return nil
}

func (s *sliceStore) Len() int { return len(s.items) }
