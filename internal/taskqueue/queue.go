package taskqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"callcheck/internal/config"
	"callcheck/internal/services"
)

// Task kinds dispatched through the queue.
const (
	KindTranscribe = "transcribe"
	KindAnalyze    = "analyze"
)

// Task is a single unit of deferred work referencing a request record by
// identifier. The payload carries no record state; handlers re-read the
// record from the metadata store on every delivery.
type Task struct {
	ID           int64
	Kind         string
	RequestID    string
	Attempts     int
	Created      time.Time
	LeaseExpires time.Time
}

// Queue is a SQLite-backed task queue with at-least-once delivery. Receive
// leases a task for a bounded duration; unless the lease is extended or the
// task acked, the task becomes deliverable again after the lease expires.
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

// Open initializes or connects to the task queue database.
func Open(cfg *config.Config) (*Queue, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(queueSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create queue schema: %w", err)
	}

	return &Queue{db: db, now: time.Now}, nil
}

const queueSchema = `
CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    request_id TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    created TEXT NOT NULL,
    not_before INTEGER NOT NULL DEFAULT 0,
    lease_expires INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tasks_ready ON tasks(lease_expires, not_before, id);
`

// Close closes the underlying database connection.
func (q *Queue) Close() error {
	if q == nil || q.db == nil {
		return nil
	}
	return q.db.Close()
}

// Send enqueues a task. Duplicate sends for the same request are allowed;
// downstream handlers are idempotent.
func (q *Queue) Send(ctx context.Context, kind, requestID string) error {
	if kind != KindTranscribe && kind != KindAnalyze {
		return fmt.Errorf("unknown task kind %q", kind)
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO tasks (kind, request_id, created) VALUES (?, ?, ?)`,
		kind, requestID, q.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return services.Wrap(services.ErrStorage, "taskqueue", "send task", requestID, err)
	}
	return nil
}

// Receive claims the oldest deliverable task and leases it for the given
// duration. Returns (nil, nil) when no task is ready.
func (q *Queue) Receive(ctx context.Context, lease time.Duration) (*Task, error) {
	now := q.now().UTC()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "taskqueue", "begin receive", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	var task Task
	var created string
	err = tx.QueryRowContext(ctx,
		`SELECT id, kind, request_id, attempts, created FROM tasks
		 WHERE lease_expires <= ? AND not_before <= ?
		 ORDER BY id LIMIT 1`,
		now.UnixMilli(), now.UnixMilli(),
	).Scan(&task.ID, &task.Kind, &task.RequestID, &task.Attempts, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "taskqueue", "select task", "", err)
	}

	expires := now.Add(lease)
	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET lease_expires = ?, attempts = attempts + 1 WHERE id = ?`,
		expires.UnixMilli(), task.ID,
	); err != nil {
		return nil, services.Wrap(services.ErrStorage, "taskqueue", "lease task", task.RequestID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, services.Wrap(services.ErrStorage, "taskqueue", "commit receive", task.RequestID, err)
	}

	task.Attempts++
	task.LeaseExpires = expires
	if parsed, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
		task.Created = parsed
	}
	return &task, nil
}

// Ack removes a completed task from the queue.
func (q *Queue) Ack(ctx context.Context, taskID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return services.Wrap(services.ErrStorage, "taskqueue", "ack task", "", err)
	}
	return nil
}

// Nack releases a task's lease and defers redelivery by the given delay.
func (q *Queue) Nack(ctx context.Context, taskID int64, delay time.Duration) error {
	notBefore := q.now().UTC().Add(delay)
	_, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET lease_expires = 0, not_before = ? WHERE id = ?`,
		notBefore.UnixMilli(), taskID,
	)
	if err != nil {
		return services.Wrap(services.ErrStorage, "taskqueue", "nack task", "", err)
	}
	return nil
}

// Extend pushes a leased task's expiry forward. Used by the workflow
// heartbeat while a handler is still working.
func (q *Queue) Extend(ctx context.Context, taskID int64, lease time.Duration) error {
	expires := q.now().UTC().Add(lease)
	result, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET lease_expires = ? WHERE id = ? AND lease_expires > 0`,
		expires.UnixMilli(), taskID,
	)
	if err != nil {
		return services.Wrap(services.ErrStorage, "taskqueue", "extend lease", "", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrStorage, "taskqueue", "extend lease", "", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %d is not leased", taskID)
	}
	return nil
}

// ReclaimExpired clears leases that have lapsed, making their tasks
// immediately deliverable again. Returns the number of reclaimed tasks.
func (q *Queue) ReclaimExpired(ctx context.Context) (int, error) {
	now := q.now().UTC().UnixMilli()
	result, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET lease_expires = 0 WHERE lease_expires > 0 AND lease_expires <= ?`, now,
	)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "taskqueue", "reclaim expired", "", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// List returns all tasks currently in the queue, oldest first.
func (q *Queue) List(ctx context.Context) ([]*Task, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, kind, request_id, attempts, created, lease_expires FROM tasks ORDER BY id`,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "taskqueue", "list tasks", "", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var task Task
		var created string
		var leaseMillis int64
		if err := rows.Scan(&task.ID, &task.Kind, &task.RequestID, &task.Attempts, &created, &leaseMillis); err != nil {
			return nil, err
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
			task.Created = parsed
		}
		if leaseMillis > 0 {
			task.LeaseExpires = time.UnixMilli(leaseMillis).UTC()
		}
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}

// Stats returns a count of queued tasks grouped by kind.
func (q *Queue) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT kind, COUNT(1) FROM tasks GROUP BY kind`)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "taskqueue", "queue stats", "", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats[kind] = count
	}
	return stats, rows.Err()
}
