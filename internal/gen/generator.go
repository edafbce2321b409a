package gen

import (
	"math/rand/v2"
)

// State is the outcome of one resumption step.
// It is either Yielded(fragment) or Completed(final).
type State[Y, R any] struct {
	yielded  Y
	returned R
	complete bool
}

// Yielded returns a state carrying a fragment.
func Yielded[Y, R any](y Y) State[Y, R] {
	return State[Y, R]{yielded: y}
}

// Completed returns a state carrying the final payload of a drive.
func Completed[Y, R any](r R) State[Y, R] {
	return State[Y, R]{returned: r, complete: true}
}

// IsComplete reports whether the drive has finished.
func (s State[Y, R]) IsComplete() bool {
	return s.complete
}

// Yield returns the fragment, if any.
func (s State[Y, R]) Yield() (Y, bool) {
	return s.yielded, !s.complete
}

// Return returns the final payload, if any.
func (s State[Y, R]) Return() (R, bool) {
	return s.returned, s.complete
}

// MapComplete transforms the final payload of a state, leaving fragments alone.
func MapComplete[Y, R, S any](s State[Y, R], f func(R) S) State[Y, S] {
	if s.complete {
		return Completed[Y](f(s.returned))
	}
	return Yielded[Y, S](s.yielded)
}

// MapFragment transforms the fragment of a state, leaving final payloads alone.
func MapFragment[Y, Z, R any](s State[Y, R], f func(Y) Z) State[Z, R] {
	if s.complete {
		return Completed[Z](s.returned)
	}
	return Yielded[Z, R](f(s.yielded))
}

// Generator is a resumable computation driven by the caller.
type Generator[Y, R any] interface {
	Next(rng *rand.Rand) State[Y, R]
}

// Func adapts a plain function to a Generator.
type Func[Y, R any] func(rng *rand.Rand) State[Y, R]

// Next calls f.
func (f Func[Y, R]) Next(rng *rand.Rand) State[Y, R] {
	return f(rng)
}

// Drain drives g to completion, discarding fragments.
func Drain[Y, R any](g Generator[Y, R], rng *rand.Rand) R {
	for {
		if r, ok := g.Next(rng).Return(); ok {
			return r
		}
	}
}

// Collect drives g to completion and returns every fragment in order
// together with the final payload.
func Collect[Y, R any](g Generator[Y, R], rng *rand.Rand) ([]Y, R) {
	var out []Y
	for {
		s := g.Next(rng)
		if r, ok := s.Return(); ok {
			return out, r
		}
		y, _ := s.Yield()
		out = append(out, y)
	}
}

type mapGen[Y, R, S any] struct {
	inner Generator[Y, R]
	f     func(R) S
}

// Map transforms the final payload of g. Fragments pass through unchanged.
func Map[Y, R, S any](g Generator[Y, R], f func(R) S) Generator[Y, S] {
	return &mapGen[Y, R, S]{inner: g, f: f}
}

func (m *mapGen[Y, R, S]) Next(rng *rand.Rand) State[Y, S] {
	return MapComplete(m.inner.Next(rng), m.f)
}

type mapYieldGen[Y, Z, R any] struct {
	inner Generator[Y, R]
	f     func(Y) Z
}

// MapYield transforms every fragment of g. The final payload passes through.
func MapYield[Y, Z, R any](g Generator[Y, R], f func(Y) Z) Generator[Z, R] {
	return &mapYieldGen[Y, Z, R]{inner: g, f: f}
}

func (m *mapYieldGen[Y, Z, R]) Next(rng *rand.Rand) State[Z, R] {
	return MapFragment(m.inner.Next(rng), m.f)
}

type andThenGen[Y, R, S any] struct {
	first  Generator[Y, R]
	f      func(R) Generator[Y, S]
	second Generator[Y, S]
}

// AndThen runs g to completion, then feeds its final payload to f and
// drives the generator f returns. Fragments of both stages are observed in
// order; the second stage's final payload is the result. The second stage
// lives only for the current drive.
func AndThen[Y, R, S any](g Generator[Y, R], f func(R) Generator[Y, S]) Generator[Y, S] {
	return &andThenGen[Y, R, S]{first: g, f: f}
}

func (a *andThenGen[Y, R, S]) Next(rng *rand.Rand) State[Y, S] {
	for {
		if a.second != nil {
			s := a.second.Next(rng)
			if s.IsComplete() {
				a.second = nil
			}
			return s
		}
		s := a.first.Next(rng)
		r, done := s.Return()
		if !done {
			y, _ := s.Yield()
			return Yielded[Y, S](y)
		}
		a.second = a.f(r)
	}
}
