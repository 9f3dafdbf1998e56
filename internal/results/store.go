// Package results persists completed mappings, one record per embedding
// discovered, deduplicated on write by the deterministic candidate key.
package results

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/motiq/motiq/internal/motif"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Record is one completed mapping.
type Record struct {
	Key       string            `json:"key"`
	ID        string            `json:"id"`
	Job       string            `json:"job"`
	Candidate map[string]string `json:"candidate"`
	Motif     motif.Doc         `json:"motif"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store is the append-only SQLite result store. Concurrent workers append
// without coordination: no write ever needs to observe another worker's
// write, and the key column absorbs duplicate commits from redelivery.
type Store struct {
	db *sql.DB
}

// Open creates or opens a result store at the given path. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open results: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("open results: %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("open results: apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("open results: set user_version: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error { return s.db.Close() }

// Write appends a record. Returns inserted=false when a record with the
// same deterministic key already exists (redelivered task recommitting the
// same mapping) — not an error.
func (s *Store) Write(ctx context.Context, rec Record) (inserted bool, err error) {
	candJSON, err := json.Marshal(rec.Candidate)
	if err != nil {
		return false, fmt.Errorf("write result: marshal candidate: %w", err)
	}
	motifJSON, err := json.Marshal(rec.Motif)
	if err != nil {
		return false, fmt.Errorf("write result: marshal motif: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO results (key, id, job, candidate, motif, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, rec.Key, rec.ID, rec.Job, string(candJSON), string(motifJSON), rec.CreatedAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("write result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write result: %w", err)
	}
	return n == 1, nil
}

// ScanJob returns every record for a job, ordered by key for determinism.
func (s *Store) ScanJob(ctx context.Context, job string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, id, job, candidate, motif, created_at
		FROM results WHERE job = ? ORDER BY key
	`, job)
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			candJSON  string
			motifJSON string
			createdAt int64
		)
		if err := rows.Scan(&rec.Key, &rec.ID, &rec.Job, &candJSON, &motifJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan results: %w", err)
		}
		if err := json.Unmarshal([]byte(candJSON), &rec.Candidate); err != nil {
			return nil, fmt.Errorf("scan results: candidate %s: %w", rec.Key, err)
		}
		if err := json.Unmarshal([]byte(motifJSON), &rec.Motif); err != nil {
			return nil, fmt.Errorf("scan results: motif %s: %w", rec.Key, err)
		}
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountJob returns the number of completed mappings recorded for a job.
func (s *Store) CountJob(ctx context.Context, job string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results WHERE job = ?`, job).Scan(&n); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}
