package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driving"
)

// errorBackoff is the pause after a failed dequeue, so a broken queue
// backend is not hammered in a tight loop
const errorBackoff = time.Second

// Worker consumes ingest tasks from the queue and runs each one
// through the document pipeline. Start launches a configurable number
// of consumer goroutines; each claims one task at a time, runs it, and
// settles the claim: Ack when the pipeline completed, Nack (with the
// failure reason) when it did not, leaving redelivery to the queue.
type Worker struct {
	queue    driven.TaskQueue
	pipeline driving.DocumentService
	logger   *slog.Logger

	concurrency    int
	dequeueTimeout int // seconds

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds dependencies and tuning for Worker.
type WorkerConfig struct {
	TaskQueue driven.TaskQueue
	Pipeline  driving.DocumentService
	Logger    *slog.Logger

	// Concurrency is the number of consumer goroutines (default 1)
	Concurrency int

	// DequeueTimeout is how many seconds each consumer waits per
	// dequeue before re-checking for shutdown (default 5)
	DequeueTimeout int
}

// NewWorker creates a worker. It does not consume until Start.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout < 1 {
		dequeueTimeout = 5
	}

	return &Worker{
		queue:          cfg.TaskQueue,
		pipeline:       cfg.Pipeline,
		logger:         logger.With("component", "worker"),
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start launches the consumer goroutines. Calling Start on a running
// worker is a no-op.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting", "concurrency", w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}
	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop signals the consumers and waits for in-flight tasks to settle.
// Safe to call on a stopped worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until all consumers have exited
func (w *Worker) Wait() {
	<-w.doneCh
}

// consume is one consumer goroutine's claim-run-settle loop
func (w *Worker) consume(ctx context.Context, id int) {
	logger := w.logger.With("consumer", id)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		task, err := w.queue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("dequeue failed", "error", err)
			select {
			case <-w.stopCh:
				return
			case <-time.After(errorBackoff):
			}
			continue
		}
		if task == nil {
			continue
		}

		w.settle(ctx, task, logger)
	}
}

// settle runs one claimed task and acks or nacks it by outcome
func (w *Worker) settle(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "attempt", task.Attempts)
	startTime := time.Now()

	runErr := w.handle(ctx, task)

	if runErr != nil {
		logger.Error("task failed",
			"error", runErr,
			"duration_seconds", time.Since(startTime).Seconds(),
		)
		if err := w.queue.Nack(ctx, task.ID, runErr.Error()); err != nil {
			logger.Error("failed to nack task", "error", err)
		}
		return
	}

	logger.Info("task completed",
		"duration_seconds", time.Since(startTime).Seconds(),
	)
	if err := w.queue.Ack(ctx, task.ID); err != nil {
		logger.Error("failed to ack task", "error", err)
	}
}

// handle dispatches one task by type
func (w *Worker) handle(ctx context.Context, task *domain.Task) error {
	if task.Type != domain.TaskTypeIngestDocument {
		return fmt.Errorf("unknown task type %q", task.Type)
	}

	filePath := task.FilePath()
	if filePath == "" {
		return errors.New("task payload has no file_path")
	}

	if !w.pipeline.ProcessDocument(ctx, filePath) {
		// The processing log carries the per-stage reason
		return fmt.Errorf("document processing failed for %s", filePath)
	}
	return nil
}

// Health is a point-in-time snapshot of the worker and its queue
type Health struct {
	Running bool               `json:"running"`
	Queue   *driven.QueueStats `json:"queue,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Health reports whether the worker is running and what the queue
// currently holds. A queue backend failure is reported in Error with
// nil stats.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	health := Health{Running: w.running}
	w.mu.RUnlock()

	stats, err := w.queue.Stats(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.Queue = stats
	return health
}
