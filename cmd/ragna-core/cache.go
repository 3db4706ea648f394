package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisadapter "github.com/custodia-labs/ragna-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/ragna-core/internal/core/services"
	"github.com/spf13/cobra"
)

var janitorCmd = &cobra.Command{
	Use:   "janitor",
	Short: "Run the cache expiry janitor",
	Long: `Sweeps expired rows from the durable cache tier on an interval until
interrupted. Runs coordinate through a Redis lock, so multiple janitors
can run side by side and only one sweeps at a time.`,
	RunE: runJanitor,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired durable cache rows once",
	Args:  cobra.NoArgs,
	RunE:  runCleanup,
}

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Clear both cache tiers",
	Args:  cobra.NoArgs,
	RunE:  runFlush,
}

var (
	janitorInterval time.Duration
	flushConfirmed  bool
)

func init() {
	janitorCmd.Flags().DurationVar(&janitorInterval, "interval", time.Hour, "Time between cleanup runs")
	flushCmd.Flags().BoolVar(&flushConfirmed, "yes", false, "Confirm the flush")

	rootCmd.AddCommand(janitorCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(flushCmd)
}

func runJanitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	janitor := services.NewJanitor(services.JanitorConfig{
		Cleaner:  s.hybrid,
		Lock:     redisadapter.NewLock(s.client),
		Logger:   slog.Default(),
		Interval: janitorInterval,
	})

	if err := janitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start janitor: %w", err)
	}

	cmd.Printf("Janitor running every %s, press Ctrl+C to stop\n", janitorInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	cmd.Println("Shutting down...")
	janitor.Stop()
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	removed, err := s.hybrid.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	cmd.Printf("Removed %d expired cache entries\n", removed)
	return nil
}

func runFlush(cmd *cobra.Command, args []string) error {
	if !flushConfirmed {
		return errors.New("flush clears both cache tiers, pass --yes to confirm")
	}

	ctx := context.Background()

	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.hybrid.Flush(ctx); err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}

	cmd.Println("Both cache tiers flushed")
	return nil
}
