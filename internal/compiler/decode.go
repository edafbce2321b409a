package compiler

import (
	"fmt"
	"sort"
	"time"

	"cuelang.org/go/cue"

	"github.com/roach88/synth/internal/chrono"
	"github.com/roach88/synth/internal/schema"
)

// DecodeNamespace decodes the root of a schema document. Collections live
// under "collection":
//
//	collection: users: {
//		type: "object"
//		fields: signup: {type: "date_time", format: "%Y-%m-%d"}
//	}
//
// Every collection is decoded; the namespace holds the ones that decoded
// cleanly and errs holds one error per collection that did not.
func DecodeNamespace(v cue.Value) (*schema.Namespace, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	root := v.LookupPath(cue.ParsePath("collection"))
	if !root.Exists() {
		return nil, []error{&CompileError{
			Field:   "collection",
			Message: "at least one collection is required",
			Pos:     v.Pos(),
		}}
	}
	iter, err := root.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	ns := &schema.Namespace{}
	var errs []error
	for iter.Next() {
		name := iter.Selector().Unquoted()
		content, err := DecodeContent(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ns.Collections = append(ns.Collections, schema.Collection{Name: name, Content: content})
	}
	if len(ns.Collections) == 0 && len(errs) == 0 {
		errs = append(errs, &CompileError{
			Field:   "collection",
			Message: "at least one collection is required",
			Pos:     root.Pos(),
		})
	}

	sort.Slice(ns.Collections, func(i, j int) bool {
		return ns.Collections[i].Name < ns.Collections[j].Name
	})
	return ns, errs
}

// DecodeContent decodes one content value, selected by its "type" field.
func DecodeContent(v cue.Value) (schema.Content, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	typ, err := requiredString(v, "type")
	if err != nil {
		return nil, err
	}
	switch typ {
	case "array":
		return decodeArray(v)
	case "date_time":
		return decodeDateTime(v)
	case "number":
		return decodeNumber(v)
	case "object":
		return decodeObject(v)
	default:
		return nil, &CompileError{
			Field:   fieldPath(v, "type"),
			Message: fmt.Sprintf("unknown content type %q (want array, date_time, number or object)", typ),
			Pos:     v.LookupPath(cue.ParsePath("type")).Pos(),
		}
	}
}

func decodeArray(v cue.Value) (schema.Content, error) {
	if err := onlyFields(v, "type", "length", "content"); err != nil {
		return nil, err
	}

	lengthVal := v.LookupPath(cue.ParsePath("length"))
	if !lengthVal.Exists() {
		return nil, &CompileError{Field: fieldPath(v, "length"), Message: "length is required", Pos: v.Pos()}
	}
	var length schema.NumberContent
	if lengthVal.IncompleteKind() == cue.IntKind {
		n, err := lengthVal.Uint64()
		if err != nil {
			return nil, &CompileError{
				Field:   fieldPath(v, "length"),
				Message: "length must be a non-negative integer",
				Pos:     lengthVal.Pos(),
				Err:     err,
			}
		}
		length = schema.ConstantU64(n)
	} else {
		c, err := DecodeContent(lengthVal)
		if err != nil {
			return nil, err
		}
		num, ok := c.(schema.NumberContent)
		if !ok || num.Subtype != schema.U64 {
			return nil, &CompileError{
				Field:   fieldPath(v, "length"),
				Message: fmt.Sprintf("length must be an unsigned number, got %s", describeContent(c)),
				Pos:     lengthVal.Pos(),
			}
		}
		length = num
	}

	contentVal := v.LookupPath(cue.ParsePath("content"))
	if !contentVal.Exists() {
		return nil, &CompileError{Field: fieldPath(v, "content"), Message: "content is required", Pos: v.Pos()}
	}
	content, err := DecodeContent(contentVal)
	if err != nil {
		return nil, err
	}
	return schema.ArrayContent{Length: length, Content: content}, nil
}

func describeContent(c schema.Content) string {
	if num, ok := c.(schema.NumberContent); ok {
		return "number(" + string(num.Subtype) + ")"
	}
	return c.TypeName()
}

// renderProbe is formatted with every resolved pattern to reject kinds
// the pattern cannot render.
var renderProbe = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

func decodeDateTime(v cue.Value) (schema.Content, error) {
	if err := onlyFields(v, "type", "format", "subtype", "begin", "end"); err != nil {
		return nil, err
	}

	format, err := requiredString(v, "format")
	if err != nil {
		return nil, err
	}
	formatter, err := chrono.NewFormatter(format)
	if err != nil {
		return nil, &CompileError{
			Field:   fieldPath(v, "format"),
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("format")).Pos(),
			Err:     err,
		}
	}

	kind := chrono.KindUnspecified
	if subtype, ok, err := optionalString(v, "subtype"); err != nil {
		return nil, err
	} else if ok {
		kind, err = chrono.ParseKind(subtype)
		if err != nil {
			return nil, &CompileError{
				Field:   fieldPath(v, "subtype"),
				Message: err.Error(),
				Pos:     v.LookupPath(cue.ParsePath("subtype")).Pos(),
			}
		}
	}

	begin, err := decodeBound(v, "begin", formatter, kind)
	if err != nil {
		return nil, err
	}
	end, err := decodeBound(v, "end", formatter, kind)
	if err != nil {
		return nil, err
	}

	if kind == chrono.KindUnspecified {
		switch {
		case begin != nil && end != nil && begin.Kind() != end.Kind():
			mismatch := &chrono.MismatchError{Op: "range", Left: begin.Kind(), Right: end.Kind()}
			return nil, &CompileError{
				Field:   fieldPath(v, "end"),
				Message: mismatch.Error(),
				Pos:     v.LookupPath(cue.ParsePath("end")).Pos(),
				Err:     mismatch,
			}
		case begin != nil:
			kind = begin.Kind()
		case end != nil:
			kind = end.Kind()
		default:
			kind = inferKind(formatter.Pattern())
		}
	}

	if _, err := formatter.Format(chrono.FromTime(renderProbe, kind)); err != nil {
		return nil, &CompileError{
			Field:   fieldPath(v, "format"),
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("format")).Pos(),
			Err:     err,
		}
	}

	return schema.DateTimeContent{Format: format, Kind: kind, Begin: begin, End: end}, nil
}

// inferKind returns the first kind, in parse fallback order, that p can
// parse, or date time when it supports none.
func inferKind(p *chrono.Pattern) chrono.Kind {
	for _, k := range chrono.Kinds {
		if p.Supports(k) {
			return k
		}
	}
	return chrono.KindDateTime
}

func decodeBound(v cue.Value, name string, f *chrono.Formatter, hint chrono.Kind) (chrono.Value, error) {
	text, ok, err := optionalString(v, name)
	if err != nil || !ok {
		return nil, err
	}
	out, err := f.Parse(text, hint)
	if err != nil {
		return nil, &CompileError{
			Field:   fieldPath(v, name),
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath(name)).Pos(),
			Err:     err,
		}
	}
	return out, nil
}

func decodeNumber(v cue.Value) (schema.Content, error) {
	if err := onlyFields(v, "type", "subtype", "constant", "range"); err != nil {
		return nil, err
	}

	constVal := v.LookupPath(cue.ParsePath("constant"))
	rangeVal := v.LookupPath(cue.ParsePath("range"))
	var lowVal, highVal cue.Value
	switch {
	case constVal.Exists() && rangeVal.Exists():
		return nil, &CompileError{Field: fieldPath(v, "range"), Message: "constant and range are mutually exclusive", Pos: rangeVal.Pos()}
	case constVal.Exists():
		lowVal, highVal = constVal, constVal
	case rangeVal.Exists():
		if err := onlyFields(rangeVal, "low", "high"); err != nil {
			return nil, err
		}
		lowVal = rangeVal.LookupPath(cue.ParsePath("low"))
		highVal = rangeVal.LookupPath(cue.ParsePath("high"))
		if !lowVal.Exists() || !highVal.Exists() {
			return nil, &CompileError{Field: fieldPath(v, "range"), Message: "range needs both low and high", Pos: rangeVal.Pos()}
		}
	default:
		return nil, &CompileError{Field: fieldPath(v, "constant"), Message: "one of constant or range is required", Pos: v.Pos()}
	}

	negative := false
	for _, b := range []cue.Value{lowVal, highVal} {
		n, err := intValue(b)
		if err != nil {
			return nil, err
		}
		negative = negative || n < 0
	}

	subtype := schema.U64
	if negative {
		subtype = schema.I64
	}
	if s, ok, err := optionalString(v, "subtype"); err != nil {
		return nil, err
	} else if ok {
		subtype = schema.NumberSubtype(s)
	}

	switch subtype {
	case schema.U64:
		lo, err := lowVal.Uint64()
		if err != nil {
			return nil, &CompileError{Field: fieldPath(lowVal, ""), Message: "u64 bounds must be non-negative", Pos: lowVal.Pos(), Err: err}
		}
		hi, err := highVal.Uint64()
		if err != nil {
			return nil, &CompileError{Field: fieldPath(highVal, ""), Message: "u64 bounds must be non-negative", Pos: highVal.Pos(), Err: err}
		}
		return schema.NumberContent{Subtype: schema.U64, U64: schema.U64Range{Low: lo, High: hi}}, nil
	case schema.I64:
		lo, err := lowVal.Int64()
		if err != nil {
			return nil, &CompileError{Field: fieldPath(lowVal, ""), Message: "i64 bound out of range", Pos: lowVal.Pos(), Err: err}
		}
		hi, err := highVal.Int64()
		if err != nil {
			return nil, &CompileError{Field: fieldPath(highVal, ""), Message: "i64 bound out of range", Pos: highVal.Pos(), Err: err}
		}
		return schema.NumberContent{Subtype: schema.I64, I64: schema.I64Range{Low: lo, High: hi}}, nil
	default:
		return nil, &CompileError{
			Field:   fieldPath(v, "subtype"),
			Message: fmt.Sprintf("unknown number subtype %q (want u64 or i64)", subtype),
			Pos:     v.LookupPath(cue.ParsePath("subtype")).Pos(),
		}
	}
}

// intValue reads v as an int64 for sign inspection. Values above
// math.MaxInt64 are reported as positive.
func intValue(v cue.Value) (int64, error) {
	if v.IncompleteKind() != cue.IntKind {
		return 0, &CompileError{Field: fieldPath(v, ""), Message: "expected an integer", Pos: v.Pos()}
	}
	n, err := v.Int64()
	if err != nil {
		if _, uerr := v.Uint64(); uerr == nil {
			return 1, nil
		}
		return 0, &CompileError{Field: fieldPath(v, ""), Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return n, nil
}

func decodeObject(v cue.Value) (schema.Content, error) {
	if err := onlyFields(v, "type", "fields"); err != nil {
		return nil, err
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return schema.ObjectContent{}, nil
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out schema.ObjectContent
	for iter.Next() {
		c, err := DecodeContent(iter.Value())
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, schema.Field{Name: iter.Selector().Unquoted(), Content: c})
	}
	return out, nil
}

func requiredString(v cue.Value, name string) (string, error) {
	s, ok, err := optionalString(v, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &CompileError{Field: fieldPath(v, name), Message: name + " is required", Pos: v.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, bool, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return "", false, nil
	}
	s, err := f.String()
	if err != nil {
		return "", false, &CompileError{
			Field:   fieldPath(v, name),
			Message: name + " must be a string",
			Pos:     f.Pos(),
			Err:     err,
		}
	}
	return s, true, nil
}

// onlyFields rejects fields outside allowed.
func onlyFields(v cue.Value, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return &CompileError{Field: fieldPath(v, ""), Message: "expected a struct", Pos: v.Pos(), Err: err}
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		known := false
		for _, a := range allowed {
			if a == name {
				known = true
				break
			}
		}
		if !known {
			return &CompileError{
				Field:   fieldPath(v, name),
				Message: fmt.Sprintf("unknown field %q", name),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

// fieldPath joins v's document path with name.
func fieldPath(v cue.Value, name string) string {
	p := v.Path().String()
	switch {
	case p == "":
		return name
	case name == "":
		return p
	default:
		return p + "." + name
	}
}
