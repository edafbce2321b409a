package chrono

import (
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// fieldSet is a bitmask of the calendar fields a pattern touches.
type fieldSet uint32

const (
	fieldYear fieldSet = 1 << iota
	fieldMonth
	fieldDay
	fieldYearDay
	fieldWeekday
	fieldHour
	fieldHour12
	fieldAMPM
	fieldMinute
	fieldSecond
	fieldFraction
	fieldOffset
	fieldZoneName

	// Derived: set when the raw fields above add up to a full component.
	fieldDate
	fieldTime
)

const (
	fieldDateAny = fieldYear | fieldMonth | fieldDay | fieldYearDay | fieldWeekday
	fieldTimeAny = fieldHour | fieldHour12 | fieldAMPM | fieldMinute | fieldSecond | fieldFraction
	fieldZoneAny = fieldOffset | fieldZoneName
)

// directiveFields maps strftime conversion specifiers to the fields they
// read or write. Specifiers missing here are rejected by CompilePattern.
var directiveFields = map[byte]fieldSet{
	'Y': fieldYear,
	'y': fieldYear,
	'm': fieldMonth,
	'B': fieldMonth,
	'b': fieldMonth,
	'h': fieldMonth,
	'd': fieldDay,
	'e': fieldDay,
	'j': fieldYearDay,
	'a': fieldWeekday,
	'A': fieldWeekday,
	'H': fieldHour,
	'I': fieldHour12,
	'p': fieldAMPM,
	'P': fieldAMPM,
	'M': fieldMinute,
	'S': fieldSecond,
	'L': fieldFraction,
	'f': fieldFraction,
	'N': fieldFraction,
	'z': fieldOffset,
	'Z': fieldZoneName,
	'F': fieldYear | fieldMonth | fieldDay,
	'D': fieldYear | fieldMonth | fieldDay,
	'x': fieldYear | fieldMonth | fieldDay,
	'v': fieldYear | fieldMonth | fieldDay,
	'T': fieldHour | fieldMinute | fieldSecond,
	'X': fieldHour | fieldMinute | fieldSecond,
	'R': fieldHour | fieldMinute,
	'r': fieldHour12 | fieldMinute | fieldSecond | fieldAMPM,
	'c': fieldWeekday | fieldMonth | fieldDay | fieldHour | fieldMinute | fieldSecond | fieldYear,
	'+': fieldWeekday | fieldMonth | fieldDay | fieldHour | fieldMinute | fieldSecond | fieldYear | fieldZoneName,
	'%': 0,
	't': 0,
	'n': 0,
}

// directiveResolution is the smallest unit a specifier can express.
var directiveResolution = map[byte]time.Duration{
	'N': time.Nanosecond,
	'f': time.Microsecond,
	'L': time.Millisecond,
	'S': time.Second,
	'T': time.Second,
	'X': time.Second,
	'r': time.Second,
	'c': time.Second,
	'+': time.Second,
	'M': time.Minute,
	'R': time.Minute,
	'H': time.Hour,
	'I': time.Hour,
}

type directive struct {
	text   string
	verb   byte
	fields fieldSet
}

// Pattern is an analysed strftime pattern.
type Pattern struct {
	text       string
	directives []directive
	fields     fieldSet
	resolution time.Duration
}

// CompilePattern validates a strftime pattern and records which fields it
// carries. Only patterns that can be both parsed and formatted are accepted.
func CompilePattern(text string) (*Pattern, error) {
	if _, err := strftime.Layout(text); err != nil {
		return nil, &PatternError{Pattern: text, Err: err}
	}

	p := &Pattern{text: text}
	dirs, err := scanDirectives(text)
	if err != nil {
		return nil, &PatternError{Pattern: text, Err: err}
	}
	p.directives = dirs
	for _, d := range dirs {
		p.fields |= d.fields
		if res, ok := directiveResolution[d.verb]; ok && (p.resolution == 0 || res < p.resolution) {
			p.resolution = res
		}
	}

	if p.fields&fieldYear != 0 && (p.fields&(fieldMonth|fieldDay) == fieldMonth|fieldDay || p.fields&fieldYearDay != 0) {
		p.fields |= fieldDate
	}
	hasHour := p.fields&fieldHour != 0 || p.fields&(fieldHour12|fieldAMPM) == fieldHour12|fieldAMPM
	if hasHour && p.fields&fieldMinute != 0 {
		p.fields |= fieldTime
	}
	return p, nil
}

// String returns the pattern text.
func (p *Pattern) String() string {
	return p.text
}

// Supports reports whether values of kind k can be parsed with p.
func (p *Pattern) Supports(k Kind) bool {
	need := k.needs()
	return need != 0 && p.fields&need == need
}

// Resolution returns the smallest step the pattern can express for kind k.
// Dates always step by whole days.
func (p *Pattern) Resolution(k Kind) time.Duration {
	if k == KindNaiveDate {
		return 24 * time.Hour
	}
	if p.resolution == 0 {
		if p.fields&fieldDate != 0 {
			return 24 * time.Hour
		}
		return time.Nanosecond
	}
	return p.resolution
}

// unrenderable returns the first directive a value of kind k cannot render.
func (p *Pattern) unrenderable(k Kind) (string, bool) {
	allowed := k.renders()
	for _, d := range p.directives {
		if d.fields&^allowed != 0 {
			return d.text, true
		}
	}
	return "", false
}

// scanDirectives walks a strftime pattern with the same grammar as
// github.com/ncruces/go-strftime: '%', an optional '-' or ':' flag, an
// optional E/O modifier, then the specifier.
func scanDirectives(text string) ([]directive, error) {
	var out []directive
	for i := 0; i < len(text); i++ {
		if text[i] != '%' {
			continue
		}
		start := i
		i++
		if i < len(text) && (text[i] == '-' || text[i] == ':') {
			i++
		}
		if i < len(text) && (text[i] == 'E' || text[i] == 'O') {
			mod := text[i]
			i++
			if i >= len(text) || !okModifier(mod, text[i]) {
				// Treated as literal text by strftime.
				continue
			}
		}
		if i >= len(text) {
			break
		}
		verb := text[i]
		fields, ok := directiveFields[verb]
		if !ok {
			return nil, &unsupportedDirectiveError{directive: text[start : i+1]}
		}
		out = append(out, directive{text: text[start : i+1], verb: verb, fields: fields})
	}
	return out, nil
}

func okModifier(mod, verb byte) bool {
	if mod == 'E' {
		return strings.IndexByte("cCxXyY", verb) >= 0
	}
	return strings.IndexByte("deHImMSuUVwWy", verb) >= 0
}

type unsupportedDirectiveError struct {
	directive string
}

func (e *unsupportedDirectiveError) Error() string {
	return "unsupported directive " + e.directive
}
