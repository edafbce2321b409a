package graph

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/synth/internal/gen"
	"github.com/roach88/synth/internal/value"
)

// Node is a compiled, repeatedly drivable generator.
type Node = gen.TryGenerator[value.Token, value.Value]

// SizeGenerator samples array lengths. It yields no fragments of its own
// in this package, but any TryGenerator with a uint64 payload will do.
type SizeGenerator = gen.TryGenerator[value.Token, uint64]

// State is the resumption outcome of a Node.
type State = gen.State[value.Token, gen.Result[value.Value]]

// Describer is implemented by nodes that can summarize their structure.
type Describer interface {
	Describe() string
}

// Describe returns a one-line summary of n.
func Describe(n any) string {
	if d, ok := n.(Describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%T", n)
}

// Collection is a named compiled node.
type Collection struct {
	Name string
	Node Node
}

// Namespace is a compiled schema.
type Namespace struct {
	Collections []Collection
}

// Lookup returns the collection with the given name.
func (ns *Namespace) Lookup(name string) (Collection, bool) {
	for _, c := range ns.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// Generate drives n once and returns its value.
func Generate(n Node, rng *rand.Rand) (value.Value, error) {
	return gen.Drain[value.Token, gen.Result[value.Value]](n, rng).Unpack()
}

// GenerateTokens drives n once and returns its fragments and value.
func GenerateTokens(n Node, rng *rand.Rand) ([]value.Token, value.Value, error) {
	tokens, r := gen.Collect[value.Token, gen.Result[value.Value]](n, rng)
	return tokens, r.Value, r.Err
}
