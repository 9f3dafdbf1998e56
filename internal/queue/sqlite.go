package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// SQLite is the durable Queue. Tasks survive process crashes; a leased task
// whose worker dies becomes leasable again when lease_until passes.
//
// The database uses WAL mode so multiple worker processes on one host can
// share a queue file; leasing is a single UPDATE guarded by lease_until,
// so two workers can never hold the same task inside one lease window.
type SQLite struct {
	db    *sql.DB
	lease time.Duration
	now   func() time.Time // injectable for lease-expiry tests
}

// OpenSQLite creates or opens a queue database at the given path.
// Idempotent: pragmas and schema migrations apply on every open.
func OpenSQLite(path string, lease time.Duration) (*SQLite, error) {
	if lease <= 0 {
		lease = DefaultLease
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open queue: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY churn inside this process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("open queue: %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("open queue: apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("open queue: set user_version: %w", err)
	}

	return &SQLite{db: db, lease: lease, now: time.Now}, nil
}

// Close closes the queue database.
func (q *SQLite) Close() error { return q.db.Close() }

// Enqueue implements Queue. The content-addressed id deduplicates identical
// sibling tasks via ON CONFLICT DO NOTHING; an empty id gets a random one.
func (q *SQLite) Enqueue(ctx context.Context, job, id string, payload []byte) error {
	if id == "" {
		id = uuid.NewString()
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tasks (id, job, payload, enqueued_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, job, payload, q.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// tryLease claims one available task in a transaction.
// Returns (nil, nil) when no task is leasable right now.
func (q *SQLite) tryLease(ctx context.Context) (*Leased, error) {
	now := q.now().UnixMilli()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("lease task: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	var (
		id      string
		job     string
		payload []byte
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, job, payload FROM tasks
		WHERE lease_until <= ?
		ORDER BY enqueued_at
		LIMIT 1
	`, now).Scan(&id, &job, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lease task: select: %w", err)
	}

	receipt := uuid.NewString()
	res, err := tx.ExecContext(ctx, `
		UPDATE tasks SET lease_until = ?, receipt = ?
		WHERE id = ? AND lease_until <= ?
	`, now+q.lease.Milliseconds(), receipt, id, now)
	if err != nil {
		return nil, fmt.Errorf("lease task: claim: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, nil // raced with another process; caller retries
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("lease task: commit: %w", err)
	}
	return &Leased{Receipt: receipt, Job: job, Payload: payload}, nil
}

// Lease implements Queue: polls until a task is claimed, the wait window
// elapses, or the context is cancelled.
func (q *SQLite) Lease(ctx context.Context, wait time.Duration) (*Leased, error) {
	deadline := q.now().Add(wait)
	for {
		l, err := q.tryLease(ctx)
		if err != nil || l != nil {
			return l, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		poll := 100 * time.Millisecond
		if remaining < poll {
			poll = remaining
		}
		timer := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Ack implements Queue. Deleting by receipt makes expired-lease acks
// harmless: a redelivered task carries a fresh receipt, so the stale one
// matches nothing.
func (q *SQLite) Ack(ctx context.Context, receipt string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE receipt = ?`, receipt)
	if err != nil {
		return fmt.Errorf("ack task: %w", err)
	}
	return nil
}

// PurgeJob implements Queue. Leased tasks are left to finish or expire;
// cancellation is best-effort, not instantaneous.
func (q *SQLite) PurgeJob(ctx context.Context, job string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM tasks WHERE job = ? AND lease_until <= ?
	`, job, q.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge job %s: %w", job, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge job %s: %w", job, err)
	}
	return n, nil
}

// Depth implements Queue.
func (q *SQLite) Depth(ctx context.Context, job string) (int64, error) {
	var (
		n   int64
		err error
	)
	if job == "" {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	} else {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE job = ?`, job).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return n, nil
}
