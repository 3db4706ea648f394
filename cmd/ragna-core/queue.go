package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and maintain the task queue",
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts per status",
	Args:  cobra.NoArgs,
	RunE:  runQueueStats,
}

var queuePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete settled tasks older than a cutoff",
	Long: `Deletes completed and failed tasks whose last update is older than
--older-than. Pending and in-flight tasks are never touched.`,
	Args: cobra.NoArgs,
	RunE: runQueuePurge,
}

var purgeOlderThan time.Duration

func init() {
	queuePurgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 7*24*time.Hour, "Minimum age of settled tasks to delete")

	queueCmd.AddCommand(queueStatsCmd)
	queueCmd.AddCommand(queuePurgeCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	queue, closeQueue, err := openQueue(ctx)
	if err != nil {
		return err
	}
	defer closeQueue()

	stats, err := queue.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}

	cmd.Printf("pending:    %d\n", stats.Pending)
	cmd.Printf("processing: %d\n", stats.Processing)
	cmd.Printf("completed:  %d\n", stats.Completed)
	cmd.Printf("failed:     %d\n", stats.Failed)
	return nil
}

func runQueuePurge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	queue, closeQueue, err := openQueue(ctx)
	if err != nil {
		return err
	}
	defer closeQueue()

	removed, err := queue.PurgeSettled(ctx, purgeOlderThan)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	cmd.Printf("Removed %d settled task(s)\n", removed)
	return nil
}
