package spatial

import (
	"fmt"

	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

// Frame is an axis-aligned rectangle given by its top-left and bottom-right
// corners.
type Frame struct {
	TLX int `json:"tl_x" toml:"tl_x" koanf:"tl_x"`
	TLY int `json:"tl_y" toml:"tl_y" koanf:"tl_y"`
	BRX int `json:"br_x" toml:"br_x" koanf:"br_x"`
	BRY int `json:"br_y" toml:"br_y" koanf:"br_y"`
}

// NewFrame returns the frame with the given corners.
func NewFrame(tlX, tlY, brX, brY int) Frame {
	return Frame{TLX: tlX, TLY: tlY, BRX: brX, BRY: brY}
}

// Add translates f by o, component-wise.
func (f Frame) Add(o Frame) Frame {
	return Frame{
		TLX: f.TLX + o.TLX,
		TLY: f.TLY + o.TLY,
		BRX: f.BRX + o.BRX,
		BRY: f.BRY + o.BRY,
	}
}

// Near reports whether both top-left coordinates differ by at most one.
func (f Frame) Near(o Frame) bool {
	return abs(f.TLX-o.TLX) <= 1 && abs(f.TLY-o.TLY) <= 1
}

// IsZero reports whether every corner coordinate is zero.
func (f Frame) IsZero() bool {
	return f == Frame{}
}

func (f Frame) String() string {
	return fmt.Sprintf("%d_%d_%d_%d", f.TLX, f.TLY, f.BRX, f.BRY)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Sample is one positioned observation: a label, its SDR, where it was
// taken, and an opaque reference to its source.
type Sample[L comparable] struct {
	Label  L       `json:"label"`
	SDR    sdr.SDR `json:"sdr"`
	Frame  Frame   `json:"frame"`
	Source string  `json:"source,omitempty"`
}
