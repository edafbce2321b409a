package chrono

import (
	"errors"
	"fmt"
)

var (
	// ErrGranularityMismatch is wrapped by every MismatchError.
	ErrGranularityMismatch = errors.New("granularity mismatch")

	// ErrDurationOverflow is wrapped by every OverflowError.
	ErrDurationOverflow = errors.New("duration overflow")
)

// MismatchError reports an operation attempted between two values of
// different kinds.
type MismatchError struct {
	Op          string
	Left, Right Kind
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s: %s vs %s", e.Op, ErrGranularityMismatch, e.Left, e.Right)
}

func (e *MismatchError) Unwrap() error { return ErrGranularityMismatch }

// OverflowError reports a distance too large for time.Duration.
type OverflowError struct {
	From, To Value
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s between %s and %s", ErrDurationOverflow, e.From, e.To)
}

func (e *OverflowError) Unwrap() error { return ErrDurationOverflow }

// PatternError reports a pattern that cannot be used for parsing and
// formatting.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// ParseError reports input text that could not be read with a pattern.
// Kind is KindUnspecified when every fallback attempt failed; Err then
// holds the last attempt's failure.
type ParseError struct {
	Input   string
	Pattern string
	Kind    Kind
	Err     error
}

func (e *ParseError) Error() string {
	if e.Kind == KindUnspecified {
		return fmt.Sprintf("cannot parse %q with pattern %q as any date/time kind: %v", e.Input, e.Pattern, e.Err)
	}
	return fmt.Sprintf("cannot parse %q with pattern %q as %s: %v", e.Input, e.Pattern, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatError reports a pattern directive that a value's kind cannot render.
type FormatError struct {
	Pattern   string
	Kind      Kind
	Directive string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("pattern %q cannot format a %s: directive %s has no value", e.Pattern, e.Kind, e.Directive)
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsFormatError returns true if err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsPatternError returns true if err is or wraps a PatternError.
func IsPatternError(err error) bool {
	var pe *PatternError
	return errors.As(err, &pe)
}
