package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

// parseSDR reads indices separated by commas and/or whitespace.
func parseSDR(s string) (sdr.SDR, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := make(sdr.SDR, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid sdr index %q", f)
		}
		out = append(out, v)
	}
	if err := sdr.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}
