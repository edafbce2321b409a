package graph

import (
	"errors"
	"fmt"
)

// BoundsError reports a date/time range whose begin is after its end.
// It is a compile-time error.
type BoundsError struct {
	Begin string
	End   string
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("begin is after end: begin=%s, end=%s", e.Begin, e.End)
}

// LengthError reports a sampled array length that cannot be allocated.
type LengthError struct {
	Length uint64
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("array length %d is too large", e.Length)
}

// RangeError reports an integer range whose low is above its high.
type RangeError struct {
	Low  string
	High string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range low is above high: low=%s, high=%s", e.Low, e.High)
}

// FieldError attributes a failure to an object field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// IsBoundsError returns true if err is or wraps a BoundsError.
func IsBoundsError(err error) bool {
	var be *BoundsError
	return errors.As(err, &be)
}
