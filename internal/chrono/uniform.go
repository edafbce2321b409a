package chrono

import (
	"errors"
	"math/rand/v2"
	"time"
)

// ErrInvertedRange is returned by NewUniform when low is after high.
var ErrInvertedRange = errors.New("range low is after high")

const secondsPerDay = 86400

// Uniform samples values uniformly from an inclusive range.
//
// The range is split into steps of a fixed unit (whole days for naive
// dates, otherwise the pattern's resolution). Sampling draws a step count
// k in [0, steps] and returns low + k*unit, so every sample is in range
// and representable in the pattern.
//
// Date ranges count calendar days and whole-second units count Unix
// seconds, so neither is limited by the span of a time.Duration. Only
// sub-second units over very long spans fail with ErrDurationOverflow.
type Uniform struct {
	low   Value
	steps uint64
	unit  time.Duration
	secs  int64 // seconds per step when stepping by Unix seconds
}

// NewUniform builds a sampler over [low, high]. low and high must have
// the same kind and low must not be after high.
func NewUniform(low, high Value, unit time.Duration) (*Uniform, error) {
	cmp, err := Compare(low, high)
	if err != nil {
		return nil, err
	}
	if cmp > 0 {
		return nil, ErrInvertedRange
	}
	lo, hi := low.Time(), high.Time()

	switch low.Kind() {
	case KindNaiveDate:
		days := (hi.Unix() - lo.Unix()) / secondsPerDay
		return &Uniform{low: low, steps: uint64(days), unit: day}, nil
	case KindNaiveDateTime, KindDateTime:
		if unit >= time.Second && unit%time.Second == 0 {
			secs := hi.Unix() - lo.Unix()
			if hi.Nanosecond() < lo.Nanosecond() {
				secs--
			}
			per := int64(unit / time.Second)
			return &Uniform{low: low, steps: uint64(secs / per), unit: unit, secs: per}, nil
		}
	}

	delta, err := Distance(low, high)
	if err != nil {
		return nil, err
	}
	if unit <= 0 {
		unit = time.Nanosecond
	}
	return &Uniform{low: low, steps: uint64(delta / unit), unit: unit}, nil
}

// Low returns the range start.
func (u *Uniform) Low() Value { return u.low }

// Steps returns the number of units between low and the last reachable
// value.
func (u *Uniform) Steps() uint64 { return u.steps }

// Sample draws one value.
func (u *Uniform) Sample(rng *rand.Rand) Value {
	if u.steps == 0 {
		return u.low
	}
	return u.at(rng.Uint64N(u.steps + 1))
}

// at returns low moved forward by k units.
func (u *Uniform) at(k uint64) Value {
	t := u.low.Time()
	switch u.low.(type) {
	case NaiveDate:
		return NaiveDate{t: t.AddDate(0, 0, int(k))}
	case NaiveDateTime:
		if u.secs > 0 {
			return NaiveDateTime{t: addSeconds(t, int64(k)*u.secs)}
		}
	case DateTime:
		if u.secs > 0 {
			return DateTime{t: addSeconds(t, int64(k)*u.secs)}
		}
	}
	return Add(u.low, time.Duration(k)*u.unit)
}

func addSeconds(t time.Time, secs int64) time.Time {
	return time.Unix(t.Unix()+secs, int64(t.Nanosecond())).In(t.Location())
}
