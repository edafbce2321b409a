package gen

import (
	"math/rand/v2"
)

// Result is the fallible final payload of a TryGenerator.
// A Result with a nil Err is a success.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok returns a successful result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail returns a failed result. err must be non-nil.
func Fail[T any](err error) Result[T] {
	if err == nil {
		panic("gen: Fail called with nil error")
	}
	return Result[T]{Err: err}
}

// IsOk reports whether r is a success.
func (r Result[T]) IsOk() bool {
	return r.Err == nil
}

// Unpack returns the value and error as a Go pair.
func (r Result[T]) Unpack() (T, error) {
	return r.Value, r.Err
}

// TryGenerator is a Generator whose final payload is a Result.
type TryGenerator[Y, T any] interface {
	Generator[Y, Result[T]]
}

// Infallible lifts g into the try layer; its drives always succeed.
func Infallible[Y, R any](g Generator[Y, R]) TryGenerator[Y, R] {
	return Map(g, Ok[R])
}

// Draw completes every drive immediately with Ok(draw(rng)).
// It never yields.
func Draw[Y, T any](draw func(rng *rand.Rand) T) TryGenerator[Y, T] {
	return Func[Y, Result[T]](func(rng *rand.Rand) State[Y, Result[T]] {
		return Completed[Y](Ok(draw(rng)))
	})
}

// Just completes every drive immediately with Ok(v).
func Just[Y, T any](v T) TryGenerator[Y, T] {
	return Func[Y, Result[T]](func(*rand.Rand) State[Y, Result[T]] {
		return Completed[Y](Ok(v))
	})
}

// Failing completes every drive immediately with err.
func Failing[Y, T any](err error) TryGenerator[Y, T] {
	return Func[Y, Result[T]](func(*rand.Rand) State[Y, Result[T]] {
		return Completed[Y](Fail[T](err))
	})
}
