package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/synth/internal/value"
)

// WriteRun stores a run and its records in one transaction and returns
// the run with ID, Seq and SchemaHash filled in.
func (s *Store) WriteRun(ctx context.Context, run Run, records []Record) (Run, error) {
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Run{}, fmt.Errorf("write run: new id: %w", err)
		}
		run.ID = id.String()
	}
	if run.SchemaHash == "" {
		run.SchemaHash = value.SchemaHash(run.SchemaJSON)
	}

	collections, err := marshalCollections(run.Collections)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	payloads := make([][]byte, len(records))
	for i, rec := range records {
		payloads[i], err = marshalPayload(rec.Value)
		if err != nil {
			return Run{}, fmt.Errorf("write run: record %s[%d]: %w", rec.Collection, rec.Index, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, seed, size, retries, uniq, max_attempts, collections, now, schema_json, schema_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		int64(run.Seed), // bit pattern; SQLite integers are signed
		run.Size,
		run.Retries,
		run.Unique,
		run.MaxAttempts,
		collections,
		run.Now.Format(time.RFC3339Nano), // keeps the offset
		string(run.SchemaJSON),
		run.SchemaHash,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, collection, idx, hash, payload)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("write run: prepare records: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, run.ID, rec.Collection, rec.Index, rec.Hash, payloads[i]); err != nil {
			return Run{}, fmt.Errorf("write run: insert record %s[%d]: %w", rec.Collection, rec.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}
