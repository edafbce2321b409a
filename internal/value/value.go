package value

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/synth/internal/chrono"
)

// Value is a sealed interface over generated values.
type Value interface {
	value()
}

// Token is a sealed interface over fragments emitted while a value is
// being generated.
type Token interface {
	token()
}

// Null is the absent value.
type Null struct{}

// Bool is a boolean value and token.
type Bool bool

// Int is a signed integer value and token.
type Int int64

// Uint is an unsigned integer value and token.
type Uint uint64

// String is a string value and token.
type String string

// Array is an ordered sequence of values.
type Array []Value

// Field is one named member of an Object.
type Field struct {
	Name  string
	Value Value
}

// Object is an ordered list of fields.
type Object []Field

// DateTime is a date/time value together with the pattern that renders it.
type DateTime struct {
	chrono.ValueAndFormat
}

// FieldName is the token emitted before an object field's own fragments.
type FieldName string

func (Null) value()     {}
func (Bool) value()     {}
func (Int) value()      {}
func (Uint) value()     {}
func (String) value()   {}
func (Array) value()    {}
func (Object) value()   {}
func (DateTime) value() {}

func (Bool) token()      {}
func (Int) token()       {}
func (Uint) token()      {}
func (String) token()    {}
func (FieldName) token() {}

// NewDateTime pairs v with its pattern.
func NewDateTime(v chrono.Value, format string) DateTime {
	return DateTime{chrono.ValueAndFormat{Value: v, Format: format}}
}

// Get returns the value of the named field.
func (o Object) Get(name string) (Value, bool) {
	for _, f := range o {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON renders fields in declaration order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON renders elements in order.
func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := Marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON renders the formatted text.
func (d DateTime) MarshalJSON() ([]byte, error) {
	text, err := d.Text()
	if err != nil {
		return nil, err
	}
	return json.Marshal(text)
}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Marshal renders v as JSON. Object fields keep declaration order.
// This is NOT canonical; use MarshalCanonical for hashing.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Int:
		return json.Marshal(int64(val))
	case Uint:
		return json.Marshal(uint64(val))
	case String:
		return json.Marshal(string(val))
	case Array:
		return val.MarshalJSON()
	case Object:
		return val.MarshalJSON()
	case DateTime:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// TokenString renders a token for logs and token dumps.
func TokenString(t Token) string {
	switch tok := t.(type) {
	case FieldName:
		return string(tok) + ":"
	case String:
		return fmt.Sprintf("%q", string(tok))
	case Int:
		return fmt.Sprintf("%d", int64(tok))
	case Uint:
		return fmt.Sprintf("%d", uint64(tok))
	case Bool:
		return fmt.Sprintf("%t", bool(tok))
	default:
		return fmt.Sprintf("%v", t)
	}
}
