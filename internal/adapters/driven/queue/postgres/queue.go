package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// pollInterval is how often a timed dequeue re-checks for due tasks
const pollInterval = 250 * time.Millisecond

// taskColumns is the scan order shared by every task-returning query
const taskColumns = `id, type, payload, status, attempts, max_attempts,
	error, created_at, updated_at, started_at, completed_at, scheduled_for`

// Queue implements driven.TaskQueue on a single tasks table.
//
// Claiming uses FOR UPDATE SKIP LOCKED, so any number of workers can
// dequeue concurrently and each due task is handed to exactly one of
// them. A task claimed but never settled (worker crash) stays in
// processing; there is no lease timeout, operators requeue such tasks
// by hand.
type Queue struct {
	db *sql.DB
}

// NewQueue creates a task queue over the given database.
// The tasks table is part of the shared schema (see schema.sql).
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db}
}

const insertTaskSQL = `
	INSERT INTO tasks (id, type, payload, status, attempts, max_attempts,
		error, created_at, updated_at, scheduled_for)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// Enqueue adds one task
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode task payload: %w", err)
	}

	_, err = q.db.ExecContext(ctx, insertTaskSQL,
		task.ID, task.Type, payload, task.Status,
		task.Attempts, task.MaxAttempts, task.Error,
		task.CreatedAt, task.UpdatedAt, task.ScheduledFor,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task %s: %w", task.ID, err)
	}
	return nil
}

// EnqueueBatch adds tasks in one transaction; any failure rolls back
// the whole batch
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTaskSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, task := range tasks {
		payload, err := json.Marshal(task.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload for task %s: %w", task.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			task.ID, task.Type, payload, task.Status,
			task.Attempts, task.MaxAttempts, task.Error,
			task.CreatedAt, task.UpdatedAt, task.ScheduledFor,
		)
		if err != nil {
			return fmt.Errorf("failed to enqueue task %s: %w", task.ID, err)
		}
	}

	return tx.Commit()
}

// Dequeue claims the next due task, oldest scheduled first.
// The claim (status flip, attempt count, start time) happens in one
// statement, so a crash between claim and return cannot double-deliver.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	query := fmt.Sprintf(`
		UPDATE tasks SET
			status = $1,
			attempts = attempts + 1,
			started_at = NOW(),
			updated_at = NOW()
		WHERE id = (
			SELECT id FROM tasks
			WHERE status = $2 AND scheduled_for <= NOW()
			ORDER BY scheduled_for
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s
	`, taskColumns)

	task, err := scanTask(q.db.QueryRowContext(ctx, query,
		domain.TaskStatusProcessing, domain.TaskStatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}
	return task, nil
}

// DequeueWithTimeout polls for a due task until one appears or the
// timeout elapses
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)

	for {
		task, err := q.Dequeue(ctx)
		if err != nil || task != nil {
			return task, err
		}
		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Ack settles a claimed task as completed.
// Returns domain.ErrNotFound when the task is unknown or not claimed.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	result, err := q.db.ExecContext(ctx, `
		UPDATE tasks SET
			status = $1,
			completed_at = NOW(),
			updated_at = NOW(),
			error = ''
		WHERE id = $2 AND status = $3
	`, domain.TaskStatusCompleted, taskID, domain.TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to ack task %s: %w", taskID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("ack task %s: %w", taskID, domain.ErrNotFound)
	}
	return nil
}

// Nack settles a claimed task as failed. With attempts left the task
// goes back to pending, scheduled after the retry backoff; an
// exhausted task stays failed.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var attempts, maxAttempts int
	err = tx.QueryRowContext(ctx, `
		SELECT attempts, max_attempts FROM tasks
		WHERE id = $1 AND status = $2
		FOR UPDATE
	`, taskID, domain.TaskStatusProcessing).Scan(&attempts, &maxAttempts)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("nack task %s: %w", taskID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	if attempts < maxAttempts {
		backoff := domain.RetryBackoff(attempts)
		_, err = tx.ExecContext(ctx, `
			UPDATE tasks SET
				status = $1,
				scheduled_for = NOW() + ($2 * interval '1 second'),
				error = $3,
				updated_at = NOW()
			WHERE id = $4
		`, domain.TaskStatusPending, backoff.Seconds(), reason, taskID)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE tasks SET
				status = $1,
				completed_at = NOW(),
				error = $2,
				updated_at = NOW()
			WHERE id = $3
		`, domain.TaskStatusFailed, reason, taskID)
	}
	if err != nil {
		return fmt.Errorf("failed to nack task %s: %w", taskID, err)
	}

	return tx.Commit()
}

// Stats counts tasks per status
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM tasks GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue stats: %w", err)
	}
	defer rows.Close()

	stats := &driven.QueueStats{}
	for rows.Next() {
		var status domain.TaskStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case domain.TaskStatusPending:
			stats.Pending = count
		case domain.TaskStatusProcessing:
			stats.Processing = count
		case domain.TaskStatusCompleted:
			stats.Completed = count
		case domain.TaskStatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// PurgeSettled deletes completed and failed tasks last touched before
// the given age
func (q *Queue) PurgeSettled(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE status IN ($1, $2)
		  AND updated_at < NOW() - ($3 * interval '1 second')
	`, domain.TaskStatusCompleted, domain.TaskStatusFailed, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to purge settled tasks: %w", err)
	}
	return result.RowsAffected()
}

// Ping checks queue backend health
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close is a no-op; the database pool is owned by the caller
func (q *Queue) Close() error {
	return nil
}

// scanTask reads one task row in taskColumns order
func scanTask(row *sql.Row) (*domain.Task, error) {
	var task domain.Task
	var payload []byte
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&task.ID, &task.Type, &payload, &task.Status,
		&task.Attempts, &task.MaxAttempts, &task.Error,
		&task.CreatedAt, &task.UpdatedAt,
		&startedAt, &completedAt, &task.ScheduledFor,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &task.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload for task %s: %w", task.ID, err)
		}
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}
