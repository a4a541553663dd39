package compact

import "errors"

var (
	// ErrIndexOutOfRange is returned when an index is outside [0, Len).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrFormat is returned when a value does not fit the configured digit
	// width, or when a stored entry cannot be split into fixed-width groups.
	ErrFormat = errors.New("format error")

	// ErrInvalidOption is returned by New for unusable width or radix values.
	ErrInvalidOption = errors.New("invalid option")
)
