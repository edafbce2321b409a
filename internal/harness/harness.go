package harness

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/synth/internal/compiler"
	"github.com/roach88/synth/internal/sampler"
	"github.com/roach88/synth/internal/store"
	"github.com/roach88/synth/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a fixed clock and records each run in a store
// so that determinism can be checked by replaying it.
type Harness struct {
	store  *store.Store
	clock  *testutil.FixedClock
	ids    *testutil.RunIDs
	logger *zap.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load and compile the schema at the scenario's "now"
// 2. Sample with the scenario's options
// 3. Write the run and its records to the store
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	now, err := scenario.NowTime()
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:  st,
		clock:  testutil.NewFixedClock(now),
		ids:    testutil.NewRunIDs(scenario.Name),
		logger: zap.L().Named("harness").With(zap.String("scenario", scenario.Name)),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	doc, err := compiler.LoadDocument(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	sample, runErr := h.generate(ctx, doc, scenario)
	if scenario.ExpectError != "" {
		switch {
		case runErr == nil:
			result.AddError(fmt.Sprintf("expected error containing %q, got success", scenario.ExpectError))
		case !strings.Contains(runErr.Error(), scenario.ExpectError):
			result.AddError(fmt.Sprintf("expected error containing %q, got: %v", scenario.ExpectError, runErr))
		}
		return result, nil
	}
	if runErr != nil {
		result.AddError(runErr.Error())
		return result, nil
	}
	result.Sample = sample

	schemaJSON, err := doc.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to render schema: %w", err)
	}
	run := store.NewRun(h.options(scenario), h.clock.Now(), schemaJSON)
	run.ID = h.ids.Next()
	run, err = h.store.WriteRun(ctx, run, store.RecordsFromSample(sample))
	if err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}
	result.RunID = run.ID

	h.logger.Debug("scenario sampled",
		zap.String("run_id", run.ID),
		zap.Int("collections", len(sample.Collections)),
	)

	actx := &AssertionContext{
		Store:  h.store,
		Ctx:    ctx,
		RunID:  run.ID,
		Logger: h.logger,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) options(scenario *Scenario) sampler.Options {
	return sampler.Options{
		Seed:        scenario.Seed,
		Size:        scenario.Size,
		Retries:     scenario.Retries,
		Unique:      scenario.Unique,
		MaxAttempts: scenario.MaxAttempts,
		Collections: scenario.Collections,
	}
}

func (h *Harness) generate(ctx context.Context, doc *compiler.Document, scenario *Scenario) (*sampler.Sample, error) {
	ns, errs := doc.Compile(h.clock.Now())
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("compile: %s", strings.Join(msgs, "; "))
	}
	return sampler.New(ns, h.options(scenario), h.logger).Run(ctx)
}

// Replay regenerates a stored run from its schema JSON, "now" and options
// and compares every record hash with the stored ones.
func Replay(ctx context.Context, st *store.Store, run store.Run, logger *zap.Logger) (store.ReplayResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	stored, err := st.ReadRecords(ctx, run.ID)
	if err != nil {
		return store.ReplayResult{}, err
	}

	doc, err := compiler.LoadBytes(run.ID+".json", run.SchemaJSON)
	if err != nil {
		return store.ReplayResult{}, fmt.Errorf("load stored schema: %w", err)
	}
	ns, errs := doc.Compile(run.Now)
	if len(errs) > 0 {
		return store.ReplayResult{}, fmt.Errorf("compile stored schema: %w", errs[0])
	}
	sample, err := sampler.New(ns, run.Options(), logger).Run(ctx)
	if err != nil {
		return store.ReplayResult{}, fmt.Errorf("regenerate: %w", err)
	}

	res := store.CompareRecords(run.ID, stored, store.RecordsFromSample(sample))
	logger.Debug("run replayed",
		zap.String("run_id", run.ID),
		zap.Int("compared", res.Compared),
		zap.Int("mismatches", len(res.Mismatches)),
	)
	return res, nil
}
