package harness

import (
	"github.com/roach88/synth/internal/sampler"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// RunID is the id of the run written to the scenario's store. Empty
	// when the scenario failed before sampling finished.
	RunID string `json:"run_id,omitempty"`

	// Sample is the generated output. Nil when compiling or sampling failed.
	Sample *sampler.Sample `json:"sample,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Collection returns the sampled records of one collection.
func (r *Result) Collection(name string) ([]sampler.Record, bool) {
	if r.Sample == nil {
		return nil, false
	}
	for _, c := range r.Sample.Collections {
		if c.Name == name {
			return c.Records, true
		}
	}
	return nil, false
}
