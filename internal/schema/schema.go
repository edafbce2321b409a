// Package schema holds the declarative content model that the compiler
// turns into generator nodes. It is pure data: no I/O, no randomness.
package schema

import (
	"github.com/roach88/synth/internal/chrono"
)

// Content is a sealed interface over schema content kinds.
type Content interface {
	// TypeName is the "type" tag used in schema documents.
	TypeName() string
	content()
}

// ArrayContent repeats one element schema a sampled number of times.
// Length must be an unsigned NumberContent.
type ArrayContent struct {
	Length  Content
	Content Content
}

// DateTimeContent samples a date/time uniformly from [Begin, End].
// A nil bound means "now" at compile time. Kind is always resolved by the
// decoder; it is never KindUnspecified.
type DateTimeContent struct {
	Format string
	Kind   chrono.Kind
	Begin  chrono.Value
	End    chrono.Value
}

// NumberSubtype selects the integer domain of a NumberContent.
type NumberSubtype string

const (
	U64 NumberSubtype = "u64"
	I64 NumberSubtype = "i64"
)

// NumberContent samples an integer uniformly from an inclusive range.
// Only the range matching Subtype is meaningful. A constant is a range
// with Low == High.
type NumberContent struct {
	Subtype NumberSubtype
	U64     U64Range
	I64     I64Range
}

// U64Range is an inclusive unsigned range.
type U64Range struct {
	Low, High uint64
}

// I64Range is an inclusive signed range.
type I64Range struct {
	Low, High int64
}

// ObjectContent generates each field in declaration order.
type ObjectContent struct {
	Fields []Field
}

// Field is one named member of an ObjectContent.
type Field struct {
	Name    string
	Content Content
}

func (ArrayContent) TypeName() string    { return "array" }
func (DateTimeContent) TypeName() string { return "date_time" }
func (NumberContent) TypeName() string   { return "number" }
func (ObjectContent) TypeName() string   { return "object" }

func (ArrayContent) content()    {}
func (DateTimeContent) content() {}
func (NumberContent) content()   {}
func (ObjectContent) content()   {}

// Collection is a named top-level content. One record of a collection is
// one full drive of its compiled node.
type Collection struct {
	Name    string
	Content Content
}

// Namespace is the set of collections in a schema document, sorted by
// name.
type Namespace struct {
	Collections []Collection
}

// Collection returns the collection with the given name.
func (ns *Namespace) Collection(name string) (Collection, bool) {
	for _, c := range ns.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// Names returns collection names in namespace order.
func (ns *Namespace) Names() []string {
	names := make([]string, len(ns.Collections))
	for i, c := range ns.Collections {
		names[i] = c.Name
	}
	return names
}

// ConstantU64 is shorthand for an unsigned constant, the usual array
// length.
func ConstantU64(n uint64) NumberContent {
	return NumberContent{Subtype: U64, U64: U64Range{Low: n, High: n}}
}
