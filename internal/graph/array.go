package graph

import (
	"math"
	"math/rand/v2"

	"github.com/roach88/synth/internal/gen"
	"github.com/roach88/synth/internal/value"
)

// ArrayNode samples a length, then drives its element node that many
// times and completes with the elements as a value.Array.
//
// The element node is owned by the ArrayNode and shared by every
// repetition; only its per-drive progress changes between repetitions.
// The first element failure fails the whole drive.
type ArrayNode struct {
	length  SizeGenerator
	content Node
	inner   Node
}

// NewArrayNode builds an array node from a length generator and one
// compiled element node.
func NewArrayNode(length SizeGenerator, content Node) *ArrayNode {
	inner := gen.TryAndThen(length, func(n uint64) Node {
		if n > math.MaxInt32 {
			return gen.Failing[value.Token, value.Value](&LengthError{Length: n})
		}
		return gen.TryMap(gen.TryRepeat(content, int(n)), toArray)
	})
	return &ArrayNode{length: length, content: content, inner: inner}
}

func toArray(elems []value.Value) value.Value {
	return value.Array(elems)
}

// Next implements gen.Generator.
func (a *ArrayNode) Next(rng *rand.Rand) State {
	return a.inner.Next(rng)
}

// Content returns the shared element node.
func (a *ArrayNode) Content() Node {
	return a.content
}

// Describe implements Describer.
func (a *ArrayNode) Describe() string {
	return "array[" + Describe(a.length) + "](" + Describe(a.content) + ")"
}
