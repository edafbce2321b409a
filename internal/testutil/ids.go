package testutil

import (
	"fmt"
	"sync"
)

// RunIDs hands out predictable run IDs: "<prefix>-run-1", "<prefix>-run-2"
// and so on. Stores assign a UUIDv7 to runs without an ID; tests that
// snapshot or compare run IDs set them from here instead.
//
// Thread-safety: Next is safe for concurrent use.
type RunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewRunIDs creates a sequence. An empty prefix becomes "test".
func NewRunIDs(prefix string) *RunIDs {
	if prefix == "" {
		prefix = "test"
	}
	return &RunIDs{prefix: prefix}
}

// Next returns the next ID in the sequence.
func (r *RunIDs) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return fmt.Sprintf("%s-run-%d", r.prefix, r.n)
}
