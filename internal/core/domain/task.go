package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// TaskType identifies the kind of work a queued task carries
type TaskType string

// TaskTypeIngestDocument runs the document pipeline for one file
const TaskTypeIngestDocument TaskType = "ingest_document"

// TaskStatus is the queue-visible lifecycle state of a task
type TaskStatus string

const (
	// TaskStatusPending means the task is waiting for a worker
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusProcessing means a worker has claimed the task
	TaskStatusProcessing TaskStatus = "processing"

	// TaskStatusCompleted means the worker acked the task
	TaskStatusCompleted TaskStatus = "completed"

	// TaskStatusFailed means the task ran out of attempts
	TaskStatusFailed TaskStatus = "failed"
)

// defaultMaxAttempts bounds retries per task
const defaultMaxAttempts = 3

// maxRetryBackoff caps the delay between attempts
const maxRetryBackoff = 5 * time.Minute

// Task is one unit of queued work. The queue owns every lifecycle
// field; workers only read the payload and settle the claim with Ack
// or Nack.
type Task struct {
	ID   string   `json:"id"`
	Type TaskType `json:"type"`

	// Payload carries task-type-specific data.
	// For ingest_document: {"file_path": "/data/report.pdf"}
	Payload map[string]string `json:"payload"`

	Status      TaskStatus `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`

	// Error is the reason given on the most recent Nack
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ScheduledFor delays delivery; retries push it into the future
	ScheduledFor time.Time `json:"scheduled_for"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewIngestDocumentTask builds a pending task that ingests one file
func NewIngestDocumentTask(filePath string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         TaskTypeIngestDocument,
		Payload:      map[string]string{"file_path": filePath},
		Status:       TaskStatusPending,
		MaxAttempts:  defaultMaxAttempts,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// FilePath returns the file an ingest task points at, or "" when the
// payload is malformed
func (t *Task) FilePath() string {
	return t.Payload["file_path"]
}

// CanRetry reports whether the task has attempts left
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// RetryBackoff returns how long a task waits before its next delivery
// after the given number of attempts: 2s after the first failure,
// doubling per attempt, capped at five minutes.
func RetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Duration(1<<attempts) * time.Second
	if backoff > maxRetryBackoff {
		return maxRetryBackoff
	}
	return backoff
}

// GenerateID creates a random, URL-safe task ID
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
