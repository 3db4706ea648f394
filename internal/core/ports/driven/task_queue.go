package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// TaskQueue is the asynchronous hand-off between enqueuers (the CLI,
// the batch ingester) and workers. Each task is delivered to exactly
// one worker at a time; the worker settles the delivery with Ack or
// Nack, and a nacked task with attempts left is redelivered after a
// backoff.
type TaskQueue interface {
	// Enqueue adds one task
	Enqueue(ctx context.Context, task *domain.Task) error

	// EnqueueBatch adds tasks all-or-nothing
	EnqueueBatch(ctx context.Context, tasks []*domain.Task) error

	// Dequeue claims the next due task without waiting.
	// Returns nil, nil when no task is due. A claimed task is invisible
	// to other workers until settled.
	Dequeue(ctx context.Context) (*domain.Task, error)

	// DequeueWithTimeout claims the next due task, waiting up to
	// timeout seconds for one to become due. Returns nil, nil on
	// timeout.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack settles a claimed task as completed
	Ack(ctx context.Context, taskID string) error

	// Nack settles a claimed task as failed with the given reason.
	// Tasks with attempts left go back to pending with a backoff;
	// exhausted tasks stay failed.
	Nack(ctx context.Context, taskID string, reason string) error

	// Stats counts tasks per status
	Stats(ctx context.Context) (*QueueStats, error)

	// PurgeSettled deletes completed and failed tasks older than the
	// given age and returns how many were removed
	PurgeSettled(ctx context.Context, olderThan time.Duration) (int64, error)

	// Ping checks queue backend health
	Ping(ctx context.Context) error

	// Close releases backend resources
	Close() error
}

// QueueStats counts tasks by status
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}
