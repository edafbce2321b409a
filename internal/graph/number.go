package graph

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/roach88/synth/internal/gen"
	"github.com/roach88/synth/internal/value"
)

// uniformU64 draws from [low, high].
func uniformU64(low, high uint64) func(*rand.Rand) uint64 {
	if low == high {
		return func(*rand.Rand) uint64 { return low }
	}
	span := high - low
	if span == math.MaxUint64 {
		return func(rng *rand.Rand) uint64 { return rng.Uint64() }
	}
	return func(rng *rand.Rand) uint64 { return low + rng.Uint64N(span+1) }
}

// uniformI64 draws from [low, high] using unsigned arithmetic on the span.
func uniformI64(low, high int64) func(*rand.Rand) int64 {
	draw := uniformU64(0, uint64(high)-uint64(low))
	return func(rng *rand.Rand) int64 { return low + int64(draw(rng)) }
}

// NewSizeGenerator samples lengths uniformly from [low, high]. It yields
// no fragments.
func NewSizeGenerator(low, high uint64) (SizeGenerator, error) {
	if low > high {
		return nil, &RangeError{Low: strconv.FormatUint(low, 10), High: strconv.FormatUint(high, 10)}
	}
	return &sizeGenerator{
		inner: gen.Draw[value.Token](uniformU64(low, high)),
		low:   low,
		high:  high,
	}, nil
}

type sizeGenerator struct {
	inner SizeGenerator
	low   uint64
	high  uint64
}

func (s *sizeGenerator) Next(rng *rand.Rand) gen.State[value.Token, gen.Result[uint64]] {
	return s.inner.Next(rng)
}

func (s *sizeGenerator) Describe() string {
	if s.low == s.high {
		return strconv.FormatUint(s.low, 10)
	}
	return fmt.Sprintf("%d..%d", s.low, s.high)
}

// NumberNode yields its sampled integer as a token and completes with it.
type NumberNode struct {
	inner Node
	desc  string
}

// NewU64Node samples uniformly from [low, high].
func NewU64Node(low, high uint64) (*NumberNode, error) {
	if low > high {
		return nil, &RangeError{Low: strconv.FormatUint(low, 10), High: strconv.FormatUint(high, 10)}
	}
	draw := uniformU64(low, high)
	return &NumberNode{
		inner: numberNode(func(rng *rand.Rand) value.Uint { return value.Uint(draw(rng)) }),
		desc:  fmt.Sprintf("number(u64, %d..%d)", low, high),
	}, nil
}

// NewI64Node samples uniformly from [low, high].
func NewI64Node(low, high int64) (*NumberNode, error) {
	if low > high {
		return nil, &RangeError{Low: strconv.FormatInt(low, 10), High: strconv.FormatInt(high, 10)}
	}
	draw := uniformI64(low, high)
	return &NumberNode{
		inner: numberNode(func(rng *rand.Rand) value.Int { return value.Int(draw(rng)) }),
		desc:  fmt.Sprintf("number(i64, %d..%d)", low, high),
	}, nil
}

type scalar interface {
	value.Value
	value.Token
}

func numberNode[S scalar](draw func(*rand.Rand) S) Node {
	once := gen.TryOnce(gen.Draw[S](draw))
	tokens := gen.MapYield[S, value.Token, gen.Result[S]](once, func(s S) value.Token { return s })
	return gen.TryMap[value.Token, S, value.Value](tokens, func(s S) value.Value { return s })
}

// Next implements gen.Generator.
func (n *NumberNode) Next(rng *rand.Rand) State {
	return n.inner.Next(rng)
}

// Describe implements Describer.
func (n *NumberNode) Describe() string {
	return n.desc
}
