package store

import (
	"errors"
	"time"

	"github.com/roach88/synth/internal/sampler"
	"github.com/roach88/synth/internal/value"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored sampling run.
type Run struct {
	// ID is a UUIDv7 assigned by WriteRun when empty.
	ID string

	// Seq is the run's position in the store, assigned by WriteRun.
	Seq int64

	Seed        uint64
	Size        int
	Retries     int
	Unique      bool
	MaxAttempts int
	Collections []string

	// Now is the instant absent date/time bounds resolved to.
	Now time.Time

	// SchemaJSON is the schema document the run compiled, as JSON.
	SchemaJSON []byte

	// SchemaHash is value.SchemaHash(SchemaJSON), filled by WriteRun when
	// empty.
	SchemaHash string
}

// Options returns the sampler options the run was generated with.
func (r Run) Options() sampler.Options {
	return sampler.Options{
		Seed:        r.Seed,
		Size:        r.Size,
		Retries:     r.Retries,
		Unique:      r.Unique,
		MaxAttempts: r.MaxAttempts,
		Collections: r.Collections,
	}
}

// NewRun describes a run generated with opts.
func NewRun(opts sampler.Options, now time.Time, schemaJSON []byte) Run {
	return Run{
		Seed:        opts.Seed,
		Size:        opts.Size,
		Retries:     opts.Retries,
		Unique:      opts.Unique,
		MaxAttempts: opts.MaxAttempts,
		Collections: opts.Collections,
		Now:         now,
		SchemaJSON:  schemaJSON,
	}
}

// Record is one stored record.
type Record struct {
	Collection string
	Index      int
	Hash       string
	Value      value.Value
}

// RecordsFromSample flattens a sample in (collection, index) order.
func RecordsFromSample(s *sampler.Sample) []Record {
	var out []Record
	for _, c := range s.Collections {
		for _, r := range c.Records {
			out = append(out, Record{Collection: c.Name, Index: r.Index, Hash: r.Hash, Value: r.Value})
		}
	}
	return out
}
