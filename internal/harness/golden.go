package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/synth/internal/value"
)

// Snapshot builds the canonical golden form of a result:
// {"sample": {...}, "scenario": name, "seed": seed}.
func Snapshot(name string, seed uint64, result *Result) ([]byte, error) {
	if result.Sample == nil {
		return nil, fmt.Errorf("scenario %s produced no sample", name)
	}
	return value.MarshalCanonical(value.Object{
		{Name: "scenario", Value: value.String(name)},
		{Name: "seed", Value: value.Uint(seed)},
		{Name: "sample", Value: result.Sample.Value()},
	})
}

// RunWithGolden executes a scenario and compares its sample against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the sample doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, scenario.Seed, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, name string, seed uint64, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, seed, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
