package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/synth/internal/value"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var testNow = time.Date(2024, time.March, 9, 10, 30, 0, 123456789, time.UTC)

// createTestRun creates a run with minimal required fields.
func createTestRun(seed uint64) Run {
	return Run{
		Seed:        seed,
		Size:        2,
		Retries:     1,
		Unique:      true,
		MaxAttempts: 64,
		Now:         testNow,
		SchemaJSON:  []byte(`{"collection":{"users":{"type":"number","constant":1}}}`),
	}
}

// createTestRecord creates a record whose hash matches its value.
func createTestRecord(collection string, idx int, v value.Value) Record {
	return Record{Collection: collection, Index: idx, Hash: value.MustRecordHash(v), Value: v}
}
