package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driving"
	"github.com/panjf2000/ants/v2"
)

// BatchIngester processes many documents concurrently over a bounded
// worker pool. Each file runs the full document pipeline; per-file
// outcomes are collected into a BatchResult while stage-level detail
// stays in the processing log.
type BatchIngester struct {
	pipeline driving.DocumentService
	pool     *ants.Pool
	logger   *slog.Logger
}

// BatchIngesterConfig holds configuration for BatchIngester.
type BatchIngesterConfig struct {
	Pipeline driving.DocumentService
	Logger   *slog.Logger
	PoolSize int // Concurrent pipeline runs (default: NumCPU/2, minimum 1)
}

// NewBatchIngester creates a batch ingester with its worker pool.
// Callers must Close it to release the pool.
func NewBatchIngester(cfg BatchIngesterConfig) (*BatchIngester, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	size := cfg.PoolSize
	if size < 1 {
		size = runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &BatchIngester{
		pipeline: cfg.Pipeline,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Close releases the worker pool.
func (b *BatchIngester) Close() {
	b.pool.Release()
}

// ProcessFiles runs the document pipeline for every path, bounded by
// the pool size. Blocks until all files finish.
func (b *BatchIngester) ProcessFiles(ctx context.Context, paths []string) domain.BatchResult {
	startTime := time.Now()

	result := domain.BatchResult{
		Failures: make(map[string]string),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, path := range paths {
		path := path
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()

			ok := b.pipeline.ProcessDocument(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				result.Processed++
			} else {
				result.Failed++
				result.Failures[path] = "processing failed, see processing log"
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			result.Failed++
			result.Failures[path] = fmt.Sprintf("failed to submit: %v", err)
			mu.Unlock()
		}
	}

	wg.Wait()

	b.logger.Info("batch ingestion complete",
		"files", len(paths),
		"processed", result.Processed,
		"failed", result.Failed,
		"duration_seconds", time.Since(startTime).Seconds(),
	)

	return result
}

// ProcessDirectory ingests every regular file directly under dir.
// Subdirectories are not descended into.
func (b *BatchIngester) ProcessDirectory(ctx context.Context, dir string) (domain.BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	b.logger.Info("ingesting directory", "dir", dir, "files", len(paths))

	return b.ProcessFiles(ctx, paths), nil
}
