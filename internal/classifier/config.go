package classifier

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fyrsmithlabs/sdrclassifier/internal/compact"
	"github.com/fyrsmithlabs/sdrclassifier/internal/history"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

// ErrInvalidConfig is returned by New when the configuration is rejected.
var ErrInvalidConfig = errors.New("invalid classifier config")

// Config holds construction-time parameters. None of them can change after
// New returns.
type Config[L comparable] struct {
	// MaxRecordedElements caps the SDRs kept per label.
	MaxRecordedElements int

	// CompactHistory stores each label's history in a compact.List using
	// DigitWidth and Radix.
	CompactHistory bool
	DigitWidth     int
	Radix          int

	MatchPolicy spatial.MatchPolicy
	FramePolicy spatial.FramePolicy

	// Unknown is the label reported when a spatial round finds no consensus.
	Unknown L
}

// DefaultConfig returns the defaults with the given unknown label.
func DefaultConfig[L comparable](unknown L) Config[L] {
	return Config[L]{
		MaxRecordedElements: history.DefaultCapacity,
		DigitWidth:          compact.DefaultWidth,
		Radix:               compact.DefaultRadix,
		MatchPolicy:         spatial.MatchGreedy,
		FramePolicy:         spatial.FrameZero,
		Unknown:             unknown,
	}
}

// Validate checks the configuration.
func (c Config[L]) Validate() error {
	if c.MaxRecordedElements < 1 {
		return fmt.Errorf("%w: max recorded elements must be at least 1, got %d", ErrInvalidConfig, c.MaxRecordedElements)
	}
	if c.CompactHistory {
		if c.DigitWidth < 1 || c.DigitWidth > compact.MaxWidth {
			return fmt.Errorf("%w: digit width must be in [1, %d], got %d", ErrInvalidConfig, compact.MaxWidth, c.DigitWidth)
		}
		if c.Radix < 2 || c.Radix > big.MaxBase {
			return fmt.Errorf("%w: radix must be in [2, %d], got %d", ErrInvalidConfig, big.MaxBase, c.Radix)
		}
	}
	if _, err := spatial.ParseMatchPolicy(string(c.MatchPolicy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := spatial.ParseFramePolicy(string(c.FramePolicy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config[L]) historyOptions() []history.Option {
	opts := []history.Option{history.WithCapacity(c.MaxRecordedElements)}
	if c.CompactHistory {
		opts = append(opts, history.WithCompactStorage(c.DigitWidth, c.Radix))
	}
	return opts
}

func (c Config[L]) voterOptions() []spatial.VoterOption {
	match, _ := spatial.ParseMatchPolicy(string(c.MatchPolicy))
	frame, _ := spatial.ParseFramePolicy(string(c.FramePolicy))
	return []spatial.VoterOption{
		spatial.WithMatchPolicy(match),
		spatial.WithFramePolicy(frame),
	}
}
