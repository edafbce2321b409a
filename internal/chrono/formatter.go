package chrono

import (
	"errors"
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
	"go.uber.org/zap"
)

// Formatter parses and formats values with one strftime pattern.
type Formatter struct {
	pattern *Pattern
}

// NewFormatter compiles pattern.
func NewFormatter(pattern string) (*Formatter, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return &Formatter{pattern: p}, nil
}

// Pattern returns the compiled pattern.
func (f *Formatter) Pattern() *Pattern {
	return f.pattern
}

// Parse reads input as a value.
//
// With a hint, input is parsed as that kind and the pattern must carry the
// fields the kind needs. Without one (KindUnspecified), kinds are tried in
// order: date time with offset, naive date time, naive date, naive time.
// The first success wins. Failed attempts are logged at debug level and
// the last one is kept in the returned error.
func (f *Formatter) Parse(input string, hint Kind) (Value, error) {
	if hint != KindUnspecified {
		v, err := f.parseAs(input, hint)
		if err != nil {
			return nil, &ParseError{Input: input, Pattern: f.pattern.text, Kind: hint, Err: err}
		}
		return v, nil
	}

	var last error
	for _, k := range Kinds {
		v, err := f.parseAs(input, k)
		if err == nil {
			return v, nil
		}
		zap.L().Debug("discarded date/time parse attempt",
			zap.String("input", input),
			zap.String("pattern", f.pattern.text),
			zap.Stringer("kind", k),
			zap.Error(err))
		last = err
	}
	return nil, &ParseError{Input: input, Pattern: f.pattern.text, Err: last}
}

var (
	errNoDate   = errors.New("pattern has no complete date (year with month and day, or day of year)")
	errNoTime   = errors.New("pattern has no complete time (hour and minute)")
	errNoOffset = errors.New("pattern has no UTC offset (%z)")
)

func (f *Formatter) parseAs(input string, k Kind) (Value, error) {
	if !f.pattern.Supports(k) {
		need := k.needs()
		switch {
		case need&fieldDate != 0 && f.pattern.fields&fieldDate == 0:
			return nil, errNoDate
		case need&fieldTime != 0 && f.pattern.fields&fieldTime == 0:
			return nil, errNoTime
		default:
			return nil, errNoOffset
		}
	}

	t, err := strftime.Parse(f.pattern.text, input)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindNaiveDate:
		return NewNaiveDate(t.Year(), t.Month(), t.Day()), nil
	case KindNaiveTime:
		return NewNaiveTime(t.Hour(), t.Minute(), t.Second(), t.Nanosecond()), nil
	case KindNaiveDateTime:
		return NewNaiveDateTime(t), nil
	case KindDateTime:
		return NewDateTime(t), nil
	default:
		return nil, fmt.Errorf("unknown kind %d", k)
	}
}

// Format renders v with the pattern. It fails with a FormatError when the
// pattern has a directive v's kind cannot supply, e.g. an hour for a
// naive date.
func (f *Formatter) Format(v Value) (string, error) {
	if dir, bad := f.pattern.unrenderable(v.Kind()); bad {
		return "", &FormatError{Pattern: f.pattern.text, Kind: v.Kind(), Directive: dir}
	}
	return strftime.Format(f.pattern.text, v.Time()), nil
}

// Normalize round-trips v through the pattern so that it holds only what
// the pattern can express. If v cannot be formatted or reparsed it is
// returned unchanged.
func (f *Formatter) Normalize(v Value) Value {
	text, err := f.Format(v)
	if err != nil {
		return v
	}
	out, err := f.Parse(text, v.Kind())
	if err != nil {
		return v
	}
	return out
}

// Now returns the current time as kind k, normalized through the pattern.
func (f *Formatter) Now(now time.Time, k Kind) Value {
	return f.Normalize(FromTime(now, k))
}
