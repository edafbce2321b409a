package chrono

import (
	"math"
	"time"
)

// Value is a date/time value of one of four granularities.
//
// Only NaiveDate, NaiveTime, NaiveDateTime, and DateTime implement it.
// Values are immutable. Arithmetic between values is defined only when
// both have the same Kind.
type Value interface {
	Kind() Kind

	// Time returns the backing instant. Naive kinds are backed by UTC
	// wall-clock times; NaiveTime uses 0000-01-01 as its date.
	Time() time.Time

	String() string

	chronoValue()
}

// NaiveDate is a calendar date without time or offset.
type NaiveDate struct{ t time.Time }

// NaiveTime is a time of day without date or offset.
type NaiveTime struct{ t time.Time }

// NaiveDateTime is a date and time without offset.
type NaiveDateTime struct{ t time.Time }

// DateTime is a date and time with a fixed UTC offset.
type DateTime struct{ t time.Time }

func (NaiveDate) chronoValue()     {}
func (NaiveTime) chronoValue()     {}
func (NaiveDateTime) chronoValue() {}
func (DateTime) chronoValue()      {}

func (NaiveDate) Kind() Kind     { return KindNaiveDate }
func (NaiveTime) Kind() Kind     { return KindNaiveTime }
func (NaiveDateTime) Kind() Kind { return KindNaiveDateTime }
func (DateTime) Kind() Kind      { return KindDateTime }

func (v NaiveDate) Time() time.Time     { return v.t }
func (v NaiveTime) Time() time.Time     { return v.t }
func (v NaiveDateTime) Time() time.Time { return v.t }
func (v DateTime) Time() time.Time      { return v.t }

func (v NaiveDate) String() string     { return v.t.Format("2006-01-02") }
func (v NaiveTime) String() string     { return v.t.Format("15:04:05.999999999") }
func (v NaiveDateTime) String() string { return v.t.Format("2006-01-02T15:04:05.999999999") }
func (v DateTime) String() string      { return v.t.Format(time.RFC3339Nano) }

// NewNaiveDate returns the given calendar date.
func NewNaiveDate(year int, month time.Month, day int) NaiveDate {
	return NaiveDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// NewNaiveTime returns the given time of day. Out-of-range components
// wrap within the day.
func NewNaiveTime(hour, min, sec, nsec int) NaiveTime {
	d := time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(nsec)
	return NaiveTime{t: timeOfDay(d)}
}

// NewNaiveDateTime takes the wall clock of t and drops its location.
func NewNaiveDateTime(t time.Time) NaiveDateTime {
	return NaiveDateTime{t: wallClock(t)}
}

// NewDateTime keeps the instant and UTC offset of t. The location is
// replaced by an unnamed fixed zone so the value never depends on the
// process time zone database.
func NewDateTime(t time.Time) DateTime {
	_, offset := t.Zone()
	return DateTime{t: t.In(time.FixedZone("", offset))}
}

// FromTime projects t onto kind k, reading t's wall clock in its own
// location.
func FromTime(t time.Time, k Kind) Value {
	switch k {
	case KindNaiveDate:
		return NewNaiveDate(t.Year(), t.Month(), t.Day())
	case KindNaiveTime:
		return NewNaiveTime(t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
	case KindNaiveDateTime:
		return NewNaiveDateTime(t)
	default:
		return NewDateTime(t)
	}
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

const day = 24 * time.Hour

func timeOfDay(d time.Duration) time.Time {
	d %= day
	if d < 0 {
		d += day
	}
	return time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).Add(d)
}

// Equal reports whether a and b have the same kind, instant, and offset.
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if !a.Time().Equal(b.Time()) {
		return false
	}
	_, oa := a.Time().Zone()
	_, ob := b.Time().Zone()
	return oa == ob
}

// Compare orders two values of the same kind. DateTime values compare by
// instant.
func Compare(a, b Value) (int, error) {
	if a.Kind() != b.Kind() {
		return 0, &MismatchError{Op: "compare", Left: a.Kind(), Right: b.Kind()}
	}
	return a.Time().Compare(b.Time()), nil
}

// Distance returns to - from as a signed duration.
//
// Differences that do not fit in a time.Duration (about ±292 years) fail
// with ErrDurationOverflow instead of saturating.
func Distance(from, to Value) (time.Duration, error) {
	if from.Kind() != to.Kind() {
		return 0, &MismatchError{Op: "distance", Left: from.Kind(), Right: to.Kind()}
	}
	a, b := from.Time(), to.Time()
	d := b.Sub(a)
	if (d == math.MaxInt64 || d == math.MinInt64) && !a.Add(d).Equal(b) {
		return 0, &OverflowError{From: from, To: to}
	}
	return d, nil
}

// Add offsets v by d and keeps its kind.
//
// NaiveDate moves by whole days, truncating any remainder toward zero.
// NaiveTime wraps around midnight.
func Add(v Value, d time.Duration) Value {
	switch v := v.(type) {
	case NaiveDate:
		days := int(d / day)
		return NaiveDate{t: v.t.AddDate(0, 0, days)}
	case NaiveTime:
		since := v.t.Sub(time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC))
		return NaiveTime{t: timeOfDay(since + d%day)}
	case NaiveDateTime:
		return NaiveDateTime{t: v.t.Add(d)}
	case DateTime:
		return DateTime{t: v.t.Add(d)}
	default:
		panic("chrono: unknown value type")
	}
}

// ValueAndFormat pairs a value with the pattern that reproduces its text.
type ValueAndFormat struct {
	Value  Value
	Format string
}

// Text formats the value with its own pattern.
func (v ValueAndFormat) Text() (string, error) {
	f, err := NewFormatter(v.Format)
	if err != nil {
		return "", err
	}
	return f.Format(v.Value)
}
