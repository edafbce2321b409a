package sampler

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/synth/internal/gen"
	"github.com/roach88/synth/internal/graph"
	"github.com/roach88/synth/internal/value"
)

// DefaultMaxAttempts bounds consecutive duplicate rejections per record
// when Options.MaxAttempts is zero.
const DefaultMaxAttempts = 64

// Options configures a sampling run.
type Options struct {
	// Seed is the run seed. Each collection derives its own source from it.
	Seed uint64

	// Size is the number of records per collection.
	Size int

	// Retries is how many times a failed record is restarted before the
	// failure surfaces.
	Retries int

	// Unique rejects records whose hash was already produced in the same
	// collection.
	Unique bool

	// MaxAttempts bounds consecutive rejections for one record.
	MaxAttempts int

	// KeepTokens keeps each record's fragment stream.
	KeepTokens bool

	// Collections restricts the run to the named collections. Empty means
	// all of them.
	Collections []string
}

// Record is one generated record.
type Record struct {
	Index  int
	Value  value.Value
	Hash   string
	Tokens []value.Token
}

// Stats counts what happened while sampling one collection.
type Stats struct {
	Rejected int
	Retried  int
}

// CollectionSample holds the records of one collection.
type CollectionSample struct {
	Name    string
	Records []Record
	Stats   Stats
}

// Sample is the output of a run in namespace order.
type Sample struct {
	Seed        uint64
	Collections []CollectionSample
}

// Value renders the sample as {collection: [records...]}.
func (s *Sample) Value() value.Object {
	out := make(value.Object, 0, len(s.Collections))
	for _, c := range s.Collections {
		records := make(value.Array, len(c.Records))
		for i, r := range c.Records {
			records[i] = r.Value
		}
		out = append(out, value.Field{Name: c.Name, Value: records})
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (s *Sample) MarshalJSON() ([]byte, error) {
	return value.Marshal(s.Value())
}

// Sampler drives a compiled namespace.
type Sampler struct {
	ns     *graph.Namespace
	opts   Options
	logger *zap.Logger
}

// New creates a sampler. A nil logger discards logs.
//
// The namespace's nodes are driven by Run; they must not be driven
// elsewhere while a run is in progress.
func New(ns *graph.Namespace, opts Options, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Sampler{ns: ns, opts: opts, logger: logger}
}

// Run samples every selected collection concurrently. The first failure
// cancels the others and is returned.
func (s *Sampler) Run(ctx context.Context) (*Sample, error) {
	if s.opts.Size < 0 {
		return nil, fmt.Errorf("size must be non-negative, got %d", s.opts.Size)
	}
	if s.opts.Retries < 0 {
		return nil, fmt.Errorf("retries must be non-negative, got %d", s.opts.Retries)
	}
	cols, err := s.selected()
	if err != nil {
		return nil, err
	}

	out := make([]CollectionSample, len(cols))
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range cols {
		g.Go(func() error {
			cs, err := s.sampleCollection(gctx, col)
			if err != nil {
				return err
			}
			out[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Sample{Seed: s.opts.Seed, Collections: out}, nil
}

func (s *Sampler) selected() ([]graph.Collection, error) {
	if len(s.opts.Collections) == 0 {
		return s.ns.Collections, nil
	}
	want := make(map[string]bool, len(s.opts.Collections))
	for _, name := range s.opts.Collections {
		if _, ok := s.ns.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown collection %q", name)
		}
		want[name] = true
	}
	var cols []graph.Collection
	for _, c := range s.ns.Collections {
		if want[c.Name] {
			cols = append(cols, c)
		}
	}
	return cols, nil
}

// hashed is a record value with its hash.
type hashed struct {
	value value.Value
	hash  string
}

func (s *Sampler) sampleCollection(ctx context.Context, col graph.Collection) (CollectionSample, error) {
	logger := s.logger.With(zap.String("collection", col.Name))
	cs := CollectionSample{Name: col.Name, Records: make([]Record, 0, s.opts.Size)}

	distinct := gen.TryFilterMap(col.Node, s.distinct(col.Name, &cs.Stats))
	pipeline := gen.TryAggregate(retry(distinct, s.opts.Retries, logger, &cs.Stats))

	rng := NewRand(s.opts.Seed, col.Name)
	for i := 0; i < s.opts.Size; i++ {
		if err := ctx.Err(); err != nil {
			return CollectionSample{}, err
		}
		rec, err := s.record(pipeline, rng)
		if err != nil {
			return CollectionSample{}, &RecordError{Collection: col.Name, Index: i, Err: err}
		}
		rec.Index = i
		cs.Records = append(cs.Records, rec)
	}

	logger.Debug("sampled collection",
		zap.Int("records", len(cs.Records)),
		zap.Int("rejected", cs.Stats.Rejected),
		zap.Int("retried", cs.Stats.Retried))
	return cs, nil
}

func (s *Sampler) record(pipeline gen.TryGenerator[[]value.Token, hashed], rng *rand.Rand) (Record, error) {
	var rec Record
	for {
		st := pipeline.Next(rng)
		if batch, ok := st.Yield(); ok {
			if s.opts.KeepTokens {
				rec.Tokens = batch
			}
			continue
		}
		res, _ := st.Return()
		h, err := res.Unpack()
		if err != nil {
			return Record{}, err
		}
		rec.Value = h.value
		rec.Hash = h.hash
		return rec, nil
	}
}

// distinct hashes each record and, in unique mode, rejects hashes seen
// before. The attempt count resets whenever a record is accepted or the
// quota is exhausted.
func (s *Sampler) distinct(collection string, stats *Stats) func(value.Value) (hashed, bool, error) {
	seen := make(map[string]struct{})
	attempts := 0
	return func(v value.Value) (hashed, bool, error) {
		h, err := value.RecordHash(v)
		if err != nil {
			return hashed{}, false, err
		}
		if !s.opts.Unique {
			return hashed{value: v, hash: h}, true, nil
		}
		attempts++
		if _, dup := seen[h]; dup {
			stats.Rejected++
			if attempts >= s.opts.MaxAttempts {
				n := attempts
				attempts = 0
				return hashed{}, false, &ExhaustedError{Collection: collection, Attempts: n}
			}
			return hashed{}, false, nil
		}
		attempts = 0
		seen[h] = struct{}{}
		return hashed{value: v, hash: h}, true, nil
	}
}

// retry wraps g in n TryOrElse stages, each restarting g once.
func retry[T any](g gen.TryGenerator[value.Token, T], n int, logger *zap.Logger, stats *Stats) gen.TryGenerator[value.Token, T] {
	out := g
	for attempt := 1; attempt <= n; attempt++ {
		out = gen.TryOrElse(out, func(err error) gen.TryGenerator[value.Token, T] {
			stats.Retried++
			logger.Warn("record failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("retries", n),
				zap.Error(err))
			return g
		})
	}
	return out
}
