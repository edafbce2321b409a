// Package gen implements the pull-based generator runtime that every
// compiled schema node is built on.
//
// A Generator is a resumable computation. Each call to Next takes the
// random source and returns one State: either Yielded(fragment), meaning
// the caller should call Next again, or Completed(final), meaning the
// current drive is over. Nothing here spawns goroutines or blocks; the
// caller owns the loop and may abandon a generator at any point.
//
// Two layers:
//
//   - Base layer (generator.go): State, Generator, Map, MapYield, AndThen.
//     It relays whatever final payload the wrapped generator produces.
//   - Try layer (try.go): generators whose final payload is a Result.
//     Combinators here know the difference between success and failure
//     and propagate failures on the very next call after they are observed.
//     Fragments are never failures.
//
// RESTART RULE:
// After a drive completes, the next call to Next starts a fresh drive.
// Every combinator in this package follows it, which is what lets one
// compiled node be repeated (TryRepeat) or retried (TryFilterMap,
// TryOrElse) without being rebuilt.
//
// The random source is always passed into Next, never stored, so a run is
// replayable from the seed and the sequence of calls alone.
package gen
