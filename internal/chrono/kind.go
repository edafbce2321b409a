package chrono

import "fmt"

// Kind is the granularity of a date/time value.
type Kind int

const (
	// KindUnspecified means no granularity hint was given.
	KindUnspecified Kind = iota
	KindNaiveDate
	KindNaiveTime
	KindNaiveDateTime
	KindDateTime
)

// Kinds lists every concrete granularity in fallback-parse order.
var Kinds = []Kind{KindDateTime, KindNaiveDateTime, KindNaiveDate, KindNaiveTime}

var kindNames = map[Kind]string{
	KindNaiveDate:     "naive_date",
	KindNaiveTime:     "naive_time",
	KindNaiveDateTime: "naive_date_time",
	KindDateTime:      "date_time",
}

// String returns the human-readable form used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNaiveDate:
		return "naive date"
	case KindNaiveTime:
		return "naive time"
	case KindNaiveDateTime:
		return "naive date time"
	case KindDateTime:
		return "date time"
	default:
		return "unspecified"
	}
}

// Name returns the schema tag for k, e.g. "naive_date".
func (k Kind) Name() string {
	return kindNames[k]
}

// ParseKind maps a schema tag to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindUnspecified, fmt.Errorf("unknown date_time subtype %q (want naive_date, naive_time, naive_date_time or date_time)", name)
}

// needs returns the fields a pattern must carry to parse a value of kind k.
func (k Kind) needs() fieldSet {
	switch k {
	case KindNaiveDate:
		return fieldDate
	case KindNaiveTime:
		return fieldTime
	case KindNaiveDateTime:
		return fieldDate | fieldTime
	case KindDateTime:
		return fieldDate | fieldTime | fieldOffset
	default:
		return 0
	}
}

// renders returns the fields a value of kind k can render.
func (k Kind) renders() fieldSet {
	switch k {
	case KindNaiveDate:
		return fieldDateAny
	case KindNaiveTime:
		return fieldTimeAny
	case KindNaiveDateTime:
		return fieldDateAny | fieldTimeAny
	case KindDateTime:
		return fieldDateAny | fieldTimeAny | fieldZoneAny
	default:
		return 0
	}
}
