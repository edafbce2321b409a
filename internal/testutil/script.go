package testutil

import (
	"math/rand/v2"

	"github.com/roach88/synth/internal/gen"
)

// NewRand returns a PCG-backed random source for tests.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Drive describes one scripted drive: the fragments to yield, then the
// final payload. A non-nil Err makes the drive fail.
type Drive[Y, T any] struct {
	Yields []Y
	Value  T
	Err    error
}

// Script is a TryGenerator that replays drives in order. Once the script
// runs out, the last drive repeats forever.
//
// Script ignores the random source; it exists to pin down exactly what a
// combinator sees from its inner generator.
type Script[Y, T any] struct {
	Drives []Drive[Y, T]

	// Starts counts drives begun, Calls counts Next invocations.
	Starts int
	Calls  int

	drive int
	pos   int
}

// NewScript builds a Script from drives. At least one drive is required.
func NewScript[Y, T any](drives ...Drive[Y, T]) *Script[Y, T] {
	if len(drives) == 0 {
		panic("testutil: NewScript needs at least one drive")
	}
	return &Script[Y, T]{Drives: drives}
}

// Next implements gen.Generator.
func (s *Script[Y, T]) Next(*rand.Rand) gen.State[Y, gen.Result[T]] {
	s.Calls++
	idx := min(s.drive, len(s.Drives)-1)
	d := s.Drives[idx]
	if s.pos == 0 {
		s.Starts++
	}
	if s.pos < len(d.Yields) {
		y := d.Yields[s.pos]
		s.pos++
		return gen.Yielded[Y, gen.Result[T]](y)
	}
	s.pos = 0
	s.drive++
	if d.Err != nil {
		return gen.Completed[Y](gen.Fail[T](d.Err))
	}
	return gen.Completed[Y](gen.Ok(d.Value))
}
