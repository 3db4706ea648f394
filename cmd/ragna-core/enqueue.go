package main

import (
	"context"
	"fmt"
	"path/filepath"

	postgresqueue "github.com/custodia-labs/ragna-core/internal/adapters/driven/queue/postgres"
	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [file-path]...",
	Short: "Queue documents for ingestion",
	Long: `Enqueues one ingest task per file onto the task queue. A worker
processes the tasks through the document pipeline.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnqueue,
}

func init() {
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	queue, closeQueue, err := openQueue(ctx)
	if err != nil {
		return err
	}
	defer closeQueue()

	tasks := make([]*domain.Task, 0, len(args))
	for _, path := range args {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		tasks = append(tasks, domain.NewIngestDocumentTask(abs))
	}

	if err := queue.EnqueueBatch(ctx, tasks); err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}

	cmd.Printf("Enqueued %d ingest task(s)\n", len(tasks))
	for _, task := range tasks {
		cmd.Printf("  %s  %s\n", task.ID, task.FilePath())
	}
	return nil
}

// openQueue builds the PostgreSQL-backed task queue
func openQueue(ctx context.Context) (driven.TaskQueue, func(), error) {
	db, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	return postgresqueue.NewQueue(db.DB), func() { db.Close() }, nil
}
