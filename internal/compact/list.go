package compact

import (
	"fmt"
	"iter"
	"math/big"
	"strconv"
	"strings"
)

const (
	// DefaultWidth is the number of decimal digits reserved per element.
	DefaultWidth = 5

	// DefaultRadix is the base of the stored text.
	DefaultRadix = 10

	// MaxWidth keeps 10^width within an int64.
	MaxWidth = 18

	sentinel = '1'
)

// Option configures a List.
type Option func(*List)

// WithWidth sets the fixed decimal digit width per element.
func WithWidth(width int) Option {
	return func(l *List) {
		l.width = width
	}
}

// WithRadix sets the radix used for the stored text, between 2 and 62.
func WithRadix(radix int) Option {
	return func(l *List) {
		l.radix = radix
	}
}

// List holds encoded integer sequences addressed by position.
type List struct {
	width   int
	radix   int
	limit   int
	entries []string
}

// New creates an empty List.
func New(opts ...Option) (*List, error) {
	l := &List{
		width: DefaultWidth,
		radix: DefaultRadix,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.width < 1 || l.width > MaxWidth {
		return nil, fmt.Errorf("%w: width must be 1-%d, got %d", ErrInvalidOption, MaxWidth, l.width)
	}
	if l.radix < 2 || l.radix > big.MaxBase {
		return nil, fmt.Errorf("%w: radix must be 2-%d, got %d", ErrInvalidOption, big.MaxBase, l.radix)
	}

	l.limit = 1
	for i := 0; i < l.width; i++ {
		l.limit *= 10
	}
	return l, nil
}

// Width returns the configured digit width.
func (l *List) Width() int { return l.width }

// Radix returns the configured radix.
func (l *List) Radix() int { return l.radix }

// Len returns the number of stored sequences.
func (l *List) Len() int { return len(l.entries) }

// Append encodes seq and stores it at the end of the list.
func (l *List) Append(seq []int) error {
	encoded, err := l.encode(seq)
	if err != nil {
		return err
	}
	l.entries = append(l.entries, encoded)
	return nil
}

// Get decodes the sequence stored at index.
func (l *List) Get(index int) ([]int, error) {
	if err := l.checkIndex(index); err != nil {
		return nil, err
	}
	return l.decode(l.entries[index])
}

// Set re-encodes seq and replaces the entry at index.
func (l *List) Set(index int, seq []int) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	encoded, err := l.encode(seq)
	if err != nil {
		return err
	}
	l.entries[index] = encoded
	return nil
}

// Last decodes the most recently stored sequence.
func (l *List) Last() ([]int, error) {
	return l.Get(len(l.entries) - 1)
}

// RemoveAt deletes the entry at index. Later entries shift down by one.
func (l *List) RemoveAt(index int) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return nil
}

// Clear removes every entry.
func (l *List) Clear() {
	l.entries = nil
}

// All yields the decoded entries in index order. Every call starts again at
// index 0. Iteration stops after the first decode error is yielded.
func (l *List) All() iter.Seq2[[]int, error] {
	return func(yield func([]int, error) bool) {
		for i := 0; i < len(l.entries); i++ {
			seq, err := l.decode(l.entries[i])
			if !yield(seq, err) || err != nil {
				return
			}
		}
	}
}

// EncodedSize returns the total length of the stored text in bytes.
func (l *List) EncodedSize() int {
	n := 0
	for _, e := range l.entries {
		n += len(e)
	}
	return n
}

func (l *List) checkIndex(index int) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(l.entries))
	}
	return nil
}

func (l *List) encode(seq []int) (string, error) {
	var b strings.Builder
	b.Grow(1 + len(seq)*l.width)
	b.WriteByte(sentinel)

	for i, v := range seq {
		if v < 0 || v >= l.limit {
			return "", fmt.Errorf("%w: element %d value %d does not fit %d digits", ErrFormat, i, v, l.width)
		}
		digits := strconv.Itoa(v)
		for pad := l.width - len(digits); pad > 0; pad-- {
			b.WriteByte('0')
		}
		b.WriteString(digits)
	}

	n, ok := new(big.Int).SetString(b.String(), 10)
	if !ok {
		return "", fmt.Errorf("%w: cannot parse packed digits", ErrFormat)
	}
	return n.Text(l.radix), nil
}

func (l *List) decode(encoded string) ([]int, error) {
	n, ok := new(big.Int).SetString(encoded, l.radix)
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: entry %q is not a base-%d number", ErrFormat, encoded, l.radix)
	}

	digits := n.Text(10)
	if digits[0] != sentinel {
		return nil, fmt.Errorf("%w: entry %q is missing its leading marker", ErrFormat, encoded)
	}
	digits = digits[1:]
	if len(digits)%l.width != 0 {
		return nil, fmt.Errorf("%w: %d digits do not split into groups of %d", ErrFormat, len(digits), l.width)
	}

	seq := make([]int, 0, len(digits)/l.width)
	for i := 0; i < len(digits); i += l.width {
		v, err := strconv.Atoi(digits[i : i+l.width])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		seq = append(seq, v)
	}
	return seq, nil
}
