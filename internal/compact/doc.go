// Package compact stores many integer sequences with less overhead than one
// slice per sequence.
//
// Each sequence is packed into a single arbitrary-precision integer: every
// element is zero-padded to a fixed number of decimal digits, the padded
// digits are concatenated behind a leading sentinel digit, and the resulting
// number is kept as text in the configured radix. Decoding reverses the
// steps exactly, so Get(Append(x)) == x for every sequence whose elements fit
// the digit width.
//
// With the default radix of 10 the packing is a plain digit repack and saves
// nothing over the padded text. Radix 36 or 62 shortens the stored text by
// roughly a third to a half.
//
// # Usage
//
//	list, err := compact.New(compact.WithWidth(5), compact.WithRadix(36))
//	if err != nil {
//	    return err
//	}
//	if err := list.Append([]int{3, 17, 4096}); err != nil {
//	    return err
//	}
//	seq, err := list.Get(0) // [3 17 4096]
//
// A List is not safe for concurrent use.
package compact
