package graph

import (
	"math/rand/v2"
	"strings"

	"github.com/roach88/synth/internal/gen"
	"github.com/roach88/synth/internal/value"
)

// ObjectField is one named field node.
type ObjectField struct {
	Name string
	Node Node
}

// ObjectNode drives its fields in order. Before each field's own
// fragments it yields a value.FieldName token. The first field failure
// fails the drive, attributed with a FieldError.
type ObjectNode struct {
	fields []ObjectField

	idx     int
	started bool
	out     value.Object
}

// NewObjectNode builds an object node.
func NewObjectNode(fields []ObjectField) *ObjectNode {
	return &ObjectNode{fields: fields}
}

func (o *ObjectNode) reset() {
	o.idx = 0
	o.started = false
	o.out = nil
}

// Next implements gen.Generator.
func (o *ObjectNode) Next(rng *rand.Rand) State {
	for {
		if o.idx == len(o.fields) {
			out := o.out
			if out == nil {
				out = value.Object{}
			}
			o.reset()
			return gen.Completed[value.Token](gen.Ok[value.Value](out))
		}

		f := o.fields[o.idx]
		if !o.started {
			o.started = true
			return gen.Yielded[value.Token, gen.Result[value.Value]](value.FieldName(f.Name))
		}

		s := f.Node.Next(rng)
		r, done := s.Return()
		if !done {
			return s
		}
		if r.Err != nil {
			o.reset()
			return gen.Completed[value.Token](gen.Fail[value.Value](&FieldError{Field: f.Name, Err: r.Err}))
		}
		o.out = append(o.out, value.Field{Name: f.Name, Value: r.Value})
		o.idx++
		o.started = false
	}
}

// Describe implements Describer.
func (o *ObjectNode) Describe() string {
	parts := make([]string, len(o.fields))
	for i, f := range o.fields {
		parts[i] = f.Name + ": " + Describe(f.Node)
	}
	return "object{" + strings.Join(parts, ", ") + "}"
}
