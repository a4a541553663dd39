package service

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sdrclassifier/internal/compact"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

var (
	// ErrEmptyLabel is returned when a label is the empty string.
	ErrEmptyLabel = errors.New("label must not be empty")

	// ErrInvalidInput marks errors caused by the caller's data rather than
	// by the service.
	ErrInvalidInput = errors.New("invalid input")
)

// classify wraps errors caused by bad SDR data with ErrInvalidInput.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sdr.ErrNegativeIndex) || errors.Is(err, compact.ErrFormat) || errors.Is(err, ErrEmptyLabel) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
