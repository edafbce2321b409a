package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_FixedRecords(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/fixed_records.yaml")
	require.NoError(t, err)

	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_FixedRecords -update
	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_IsCanonical(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/fixed_records.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, scenario.Seed, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, scenario.Seed, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t,
		`{"sample":{"fixed":[{"day":"2020-02-29","n":3},{"day":"2020-02-29","n":3}]},"scenario":"fixed_records","seed":1}`,
		string(a))
}

func TestSnapshot_NoSample(t *testing.T) {
	_, err := Snapshot("empty", 0, NewResult())
	assert.EqualError(t, err, "scenario empty produced no sample")
}
