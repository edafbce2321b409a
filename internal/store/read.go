package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = `id, seq, seed, size, retries, uniq, max_attempts, collections, now, schema_json, schema_hash`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		seed        int64
		collections string
		now         string
		schemaJSON  string
	)
	err := row.Scan(&run.ID, &run.Seq, &seed, &run.Size, &run.Retries, &run.Unique,
		&run.MaxAttempts, &collections, &now, &schemaJSON, &run.SchemaHash)
	if err != nil {
		return Run{}, err
	}
	run.Seed = uint64(seed)
	run.SchemaJSON = []byte(schemaJSON)
	run.Collections, err = unmarshalCollections(collections)
	if err != nil {
		return Run{}, err
	}
	run.Now, err = time.Parse(time.RFC3339Nano, now)
	if err != nil {
		return Run{}, fmt.Errorf("parse run time: %w", err)
	}
	return run, nil
}

// GetRun returns the run with the given ID, or an error wrapping
// ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// LatestRun returns the run with the highest seq, or an error wrapping
// ErrRunNotFound when the store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: store is empty", ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run ordered by seq.
// Returns an empty slice (not nil) if the store has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRecords returns a run's records ordered by collection, then index.
// Returns an empty slice (not nil) if the run has no records.
func (s *Store) ReadRecords(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, idx, hash, payload
		FROM records
		WHERE run_id = ?
		ORDER BY collection COLLATE BINARY ASC, idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			rec     Record
			payload []byte
		)
		if err := rows.Scan(&rec.Collection, &rec.Index, &rec.Hash, &payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Value, err = unmarshalPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("record %s[%d]: %w", rec.Collection, rec.Index, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
