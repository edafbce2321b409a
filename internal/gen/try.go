package gen

import (
	"math/rand/v2"
)

type tryYield[Y, T any] struct {
	inner   TryGenerator[Y, T]
	value   T
	pending bool
}

// TryOnce gives one-shot semantics to g: each drive runs g to completion,
// discards its fragments, and yields the success payload as the single
// fragment before completing with it. A failure completes the drive
// without yielding.
func TryOnce[Y, T any](g TryGenerator[Y, T]) TryGenerator[T, T] {
	return &tryYield[Y, T]{inner: g}
}

// TryYield re-exposes the success payload of a fully driven g as a
// fragment. It is TryOnce under the name used where an aggregated value
// must be observed as if it had been yielded.
func TryYield[Y, T any](g TryGenerator[Y, T]) TryGenerator[T, T] {
	return TryOnce(g)
}

func (t *tryYield[Y, T]) Next(rng *rand.Rand) State[T, Result[T]] {
	if t.pending {
		t.pending = false
		v := t.value
		var zero T
		t.value = zero
		return Completed[T](Ok(v))
	}
	r := Drain[Y, Result[T]](t.inner, rng)
	if r.Err != nil {
		return Completed[T](r)
	}
	t.value = r.Value
	t.pending = true
	return Yielded[T, Result[T]](r.Value)
}

// TryMap transforms the success payload of g. Fragments and failures pass
// through unchanged.
func TryMap[Y, T, U any](g TryGenerator[Y, T], f func(T) U) TryGenerator[Y, U] {
	return Map[Y, Result[T], Result[U]](g, func(r Result[T]) Result[U] {
		if r.Err != nil {
			return Fail[U](r.Err)
		}
		return Ok(f(r.Value))
	})
}

type tryAndThen[Y, T, U any] struct {
	first  TryGenerator[Y, T]
	f      func(T) TryGenerator[Y, U]
	second TryGenerator[Y, U]
}

// TryAndThen runs g; on success it passes the payload to f and splices in
// the generator f returns. Fragments of both stages are observed in order.
// A failure of g completes the drive immediately and f is not called.
func TryAndThen[Y, T, U any](g TryGenerator[Y, T], f func(T) TryGenerator[Y, U]) TryGenerator[Y, U] {
	return &tryAndThen[Y, T, U]{first: g, f: f}
}

func (a *tryAndThen[Y, T, U]) Next(rng *rand.Rand) State[Y, Result[U]] {
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
			return Yielded[Y, Result[U]](y)
		}
		if r.Err != nil {
			return Completed[Y](Fail[U](r.Err))
		}
		a.second = a.f(r.Value)
	}
}

type tryOrElse[Y, T any] struct {
	first    TryGenerator[Y, T]
	f        func(error) TryGenerator[Y, T]
	fallback TryGenerator[Y, T]
}

// TryOrElse runs g; on failure it passes the error to f and splices in the
// generator f returns. Fragments already emitted by g are not retracted.
// A success of g completes the drive and f is not called.
func TryOrElse[Y, T any](g TryGenerator[Y, T], f func(error) TryGenerator[Y, T]) TryGenerator[Y, T] {
	return &tryOrElse[Y, T]{first: g, f: f}
}

func (o *tryOrElse[Y, T]) Next(rng *rand.Rand) State[Y, Result[T]] {
	for {
		if o.fallback != nil {
			s := o.fallback.Next(rng)
			if s.IsComplete() {
				o.fallback = nil
			}
			return s
		}
		s := o.first.Next(rng)
		r, done := s.Return()
		if !done || r.Err == nil {
			return s
		}
		o.fallback = o.f(r.Err)
	}
}

type tryFilterMap[Y, T, O any] struct {
	inner TryGenerator[Y, T]
	f     func(T) (O, bool, error)
	buf   []Y
	out   O
	ready bool
}

// TryFilterMap drives g to completion, buffering its fragments, and offers
// the success payload to f.
//
//   - f accepts (ok == true): the buffered fragments are released in order,
//     then the drive completes with the accepted value.
//   - f rejects (ok == false): the buffer is discarded and g is driven again
//     from scratch.
//   - g or f fails: the buffer is discarded and the failure completes the
//     drive.
//
// Rejection loops happen inside a single call to Next; f is responsible for
// bounding them.
func TryFilterMap[Y, T, O any](g TryGenerator[Y, T], f func(T) (O, bool, error)) TryGenerator[Y, O] {
	return &tryFilterMap[Y, T, O]{inner: g, f: f}
}

func (t *tryFilterMap[Y, T, O]) Next(rng *rand.Rand) State[Y, Result[O]] {
	if len(t.buf) > 0 {
		y := t.buf[0]
		t.buf = t.buf[1:]
		return Yielded[Y, Result[O]](y)
	}
	if t.ready {
		t.ready = false
		out := t.out
		var zero O
		t.out = zero
		return Completed[Y](Ok(out))
	}

	t.buf = nil
	for {
		s := t.inner.Next(rng)
		r, done := s.Return()
		if !done {
			y, _ := s.Yield()
			t.buf = append(t.buf, y)
			continue
		}
		if r.Err != nil {
			t.buf = nil
			return Completed[Y](Fail[O](r.Err))
		}
		out, ok, err := t.f(r.Value)
		if err != nil {
			t.buf = nil
			return Completed[Y](Fail[O](err))
		}
		if !ok {
			t.buf = t.buf[:0]
			continue
		}
		t.out = out
		t.ready = true
		return t.Next(rng)
	}
}

type tryAggregate[Y, T any] struct {
	inner   TryGenerator[Y, T]
	value   T
	pending bool
}

// TryAggregate collects every fragment of a drive of g into one slice and
// yields it as a single fragment, then completes with g's success payload.
// If g fails, the drive completes with the failure and no batch is yielded.
func TryAggregate[Y, T any](g TryGenerator[Y, T]) TryGenerator[[]Y, T] {
	return &tryAggregate[Y, T]{inner: g}
}

func (a *tryAggregate[Y, T]) Next(rng *rand.Rand) State[[]Y, Result[T]] {
	if a.pending {
		a.pending = false
		v := a.value
		var zero T
		a.value = zero
		return Completed[[]Y](Ok(v))
	}
	batch, r := Collect[Y, Result[T]](a.inner, rng)
	if r.Err != nil {
		return Completed[[]Y](r)
	}
	if batch == nil {
		batch = []Y{}
	}
	a.value = r.Value
	a.pending = true
	return Yielded[[]Y, Result[T]](batch)
}

type tryRepeat[Y, T any] struct {
	inner TryGenerator[Y, T]
	n     int
	out   []T
}

// TryRepeat drives g exactly n times in sequence and completes with the n
// success payloads in order. Fragments are the concatenation of every
// repetition's fragments. The first failure completes the drive and no
// further repetitions run. n == 0 completes immediately with an empty
// slice.
//
// The same g is driven for every repetition, so g must restart after
// completion.
func TryRepeat[Y, T any](g TryGenerator[Y, T], n int) TryGenerator[Y, []T] {
	if n < 0 {
		panic("gen: TryRepeat with negative count")
	}
	return &tryRepeat[Y, T]{inner: g, n: n}
}

func (t *tryRepeat[Y, T]) Next(rng *rand.Rand) State[Y, Result[[]T]] {
	for {
		if t.out == nil {
			t.out = make([]T, 0, t.n)
		}
		if len(t.out) == t.n {
			out := t.out
			t.out = nil
			return Completed[Y](Ok(out))
		}
		s := t.inner.Next(rng)
		r, done := s.Return()
		if !done {
			y, _ := s.Yield()
			return Yielded[Y, Result[[]T]](y)
		}
		if r.Err != nil {
			t.out = nil
			return Completed[Y](Fail[[]T](r.Err))
		}
		t.out = append(t.out, r.Value)
	}
}
