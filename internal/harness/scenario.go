package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a generation test scenario.
// A scenario compiles one schema, samples it with fixed options and a
// fixed "now", and asserts on the resulting records.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the schema file or directory to load.
	// Relative paths are resolved against the scenario file's directory.
	Schema string `yaml:"schema"`

	// Now is the RFC 3339 instant used for absent date/time bounds.
	// Defaults to DefaultNow so that golden output never depends on the
	// wall clock.
	Now string `yaml:"now,omitempty"`

	Seed        uint64   `yaml:"seed"`
	Size        int      `yaml:"size"`
	Retries     int      `yaml:"retries,omitempty"`
	Unique      bool     `yaml:"unique,omitempty"`
	MaxAttempts int      `yaml:"max_attempts,omitempty"`
	Collections []string `yaml:"collections,omitempty"`

	// ExpectError, when set, makes the scenario pass only if compiling or
	// sampling fails with an error containing this text.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the generated records.
	// Supported types: record_count, distinct, values_in, text_range, deterministic
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates the records of one collection.
type Assertion struct {
	// Type specifies the assertion type:
	// - "record_count": the collection has exactly Count records
	// - "distinct": the values at Path are pairwise distinct
	// - "values_in": every value at Path renders to one of Values
	// - "text_range": every value at Path renders within [Min, Max]
	// - "deterministic": a replay of the stored run reproduces every hash
	Type string `yaml:"type"`

	// Collection names the collection under test. Not used by deterministic.
	Collection string `yaml:"collection,omitempty"`

	// Path selects values inside each record: dot-separated field names,
	// with "*" expanding array elements. Empty selects the record itself.
	Path string `yaml:"path,omitempty"`

	// Count is the expected number of records (record_count).
	Count *int `yaml:"count,omitempty"`

	// Values is the allowed rendered text (values_in).
	Values []string `yaml:"values,omitempty"`

	// Min and Max bound the rendered text (text_range). Either may be empty.
	Min string `yaml:"min,omitempty"`
	Max string `yaml:"max,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount   = "record_count"
	AssertDistinct      = "distinct"
	AssertValuesIn      = "values_in"
	AssertTextRange     = "text_range"
	AssertDeterministic = "deterministic"
)

// DefaultNow is the compile-time "now" of scenarios that do not set one.
var DefaultNow = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// NowTime returns the scenario's "now".
func (s *Scenario) NowTime() (time.Time, error) {
	if s.Now == "" {
		return DefaultNow, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("now must be an RFC 3339 time: %w", err)
	}
	return t, nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The schema path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml scenario directly in dir, sorted by
// file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema not found: %s", s.Schema)
	}

	if s.Size < 0 {
		return fmt.Errorf("size must be non-negative")
	}
	if s.Retries < 0 {
		return fmt.Errorf("retries must be non-negative")
	}
	if _, err := s.NowTime(); err != nil {
		return err
	}

	if s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Type != AssertDeterministic && a.Collection == "" {
		return fmt.Errorf("assertions[%d]: collection is required for %s", index, a.Type)
	}

	switch a.Type {
	case AssertRecordCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for record_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertDistinct:
	case AssertValuesIn:
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values list is required for values_in", index)
		}
	case AssertTextRange:
		if a.Min == "" && a.Max == "" {
			return fmt.Errorf("assertions[%d]: min or max is required for text_range", index)
		}
		if a.Min != "" && a.Max != "" && a.Min > a.Max {
			return fmt.Errorf("assertions[%d]: min %q is above max %q", index, a.Min, a.Max)
		}
	case AssertDeterministic:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
