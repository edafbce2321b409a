package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/synth/internal/sampler"
	"github.com/roach88/synth/internal/store"
	"github.com/roach88/synth/internal/value"
)

// AssertionContext provides what assertions need beyond the sample.
type AssertionContext struct {
	Store  *store.Store
	Ctx    context.Context
	RunID  string
	Logger *zap.Logger
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type       string // Assertion type for categorization
	Collection string
	Expected   string // Human-readable expected outcome
	Actual     string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Collection != "" {
		fmt.Fprintf(&buf, " (collection %s)", e.Collection)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s\n", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all assertions passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	if a.Type == AssertDeterministic {
		return assertDeterministic(actx)
	}

	records, ok := result.Collection(a.Collection)
	if !ok {
		return &AssertionError{
			Type:       a.Type,
			Collection: a.Collection,
			Expected:   "collection in sample",
			Actual:     "collection not sampled",
		}
	}

	switch a.Type {
	case AssertRecordCount:
		return assertRecordCount(records, a)
	case AssertDistinct:
		return assertDistinct(records, a)
	case AssertValuesIn:
		return assertValuesIn(records, a)
	case AssertTextRange:
		return assertTextRange(records, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRecordCount(records []sampler.Record, a Assertion) error {
	if len(records) != *a.Count {
		return &AssertionError{
			Type:       AssertRecordCount,
			Collection: a.Collection,
			Expected:   fmt.Sprintf("%d records", *a.Count),
			Actual:     fmt.Sprintf("%d records", len(records)),
		}
	}
	return nil
}

// assertDistinct compares canonical JSON, so two date/times are equal
// exactly when they render to the same text.
func assertDistinct(records []sampler.Record, a Assertion) error {
	seen := make(map[string]string)
	for _, rec := range records {
		values, err := SelectPath(rec.Value, a.Path)
		if err != nil {
			return fmt.Errorf("record %d: %w", rec.Index, err)
		}
		for _, v := range values {
			key, err := value.MarshalCanonical(v)
			if err != nil {
				return fmt.Errorf("record %d: %w", rec.Index, err)
			}
			where := fmt.Sprintf("record %d", rec.Index)
			if first, dup := seen[string(key)]; dup {
				return &AssertionError{
					Type:       AssertDistinct,
					Collection: a.Collection,
					Expected:   fmt.Sprintf("distinct values at %q", a.Path),
					Actual:     fmt.Sprintf("%s repeated in %s and %s", key, first, where),
				}
			}
			seen[string(key)] = where
		}
	}
	return nil
}

func assertValuesIn(records []sampler.Record, a Assertion) error {
	return eachText(records, a, func(text string) error {
		if slices.Contains(a.Values, text) {
			return nil
		}
		return &AssertionError{
			Type:       AssertValuesIn,
			Collection: a.Collection,
			Expected:   fmt.Sprintf("value at %q in %v", a.Path, a.Values),
			Actual:     fmt.Sprintf("%q", text),
		}
	})
}

func assertTextRange(records []sampler.Record, a Assertion) error {
	return eachText(records, a, func(text string) error {
		if (a.Min == "" || text >= a.Min) && (a.Max == "" || text <= a.Max) {
			return nil
		}
		return &AssertionError{
			Type:       AssertTextRange,
			Collection: a.Collection,
			Expected:   fmt.Sprintf("value at %q within [%q, %q]", a.Path, a.Min, a.Max),
			Actual:     fmt.Sprintf("%q", text),
		}
	})
}

func eachText(records []sampler.Record, a Assertion, check func(string) error) error {
	for _, rec := range records {
		values, err := SelectPath(rec.Value, a.Path)
		if err != nil {
			return fmt.Errorf("record %d: %w", rec.Index, err)
		}
		for _, v := range values {
			text, err := Text(v)
			if err != nil {
				return fmt.Errorf("record %d: %w", rec.Index, err)
			}
			if err := check(text); err != nil {
				return err
			}
		}
	}
	return nil
}

// assertDeterministic replays the stored run.
func assertDeterministic(actx *AssertionContext) error {
	run, err := actx.Store.GetRun(actx.Ctx, actx.RunID)
	if err != nil {
		return err
	}
	res, err := Replay(actx.Ctx, actx.Store, run, actx.Logger)
	if err != nil {
		return err
	}
	if !res.Deterministic() {
		m := res.Mismatches[0]
		return &AssertionError{
			Type:       AssertDeterministic,
			Collection: m.Collection,
			Expected:   fmt.Sprintf("record %d hash %s", m.Index, m.Stored),
			Actual:     fmt.Sprintf("replayed hash %s (%d of %d records differ)", m.Replayed, len(res.Mismatches), res.Compared),
		}
	}
	return nil
}

// SelectPath returns the values at path inside v. Path segments are
// separated by dots; "*" expands every element of an array.
func SelectPath(v value.Value, path string) ([]value.Value, error) {
	if path == "" {
		return []value.Value{v}, nil
	}

	current := []value.Value{v}
	for _, seg := range strings.Split(path, ".") {
		var next []value.Value
		for _, c := range current {
			switch node := c.(type) {
			case value.Array:
				if seg != "*" {
					return nil, fmt.Errorf("path %q: segment %q applied to an array", path, seg)
				}
				next = append(next, node...)
			case value.Object:
				if seg == "*" {
					return nil, fmt.Errorf("path %q: \"*\" applied to an object", path)
				}
				f, ok := node.Get(seg)
				if !ok {
					return nil, fmt.Errorf("path %q: no field %q", path, seg)
				}
				next = append(next, f)
			default:
				return nil, fmt.Errorf("path %q: segment %q applied to a scalar", path, seg)
			}
		}
		current = next
	}
	return current, nil
}

// Text renders v the way it appears in output: strings and date/times as
// their text, everything else as JSON.
func Text(v value.Value) (string, error) {
	switch val := v.(type) {
	case value.String:
		return string(val), nil
	case value.DateTime:
		return val.Text()
	default:
		data, err := value.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
