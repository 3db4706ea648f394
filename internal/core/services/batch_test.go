package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driving"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBatchPipeline implements driving.DocumentService and tracks how
// many documents are processed concurrently
type mockBatchPipeline struct {
	mu          sync.Mutex
	processed   []string
	failPaths   map[string]bool
	delay       time.Duration
	inFlight    int
	maxInFlight int
}

var _ driving.DocumentService = (*mockBatchPipeline)(nil)

func (m *mockBatchPipeline) ProcessDocument(ctx context.Context, filePath string) bool {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	m.processed = append(m.processed, filePath)
	return !m.failPaths[filePath]
}

func (m *mockBatchPipeline) Status(ctx context.Context, documentID string) (map[domain.ProcessingStage]domain.ProcessingRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *mockBatchPipeline) FailedDocuments(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockBatchPipeline) processedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.processed))
	copy(out, m.processed)
	return out
}

func TestNewBatchIngester(t *testing.T) {
	b, err := NewBatchIngester(BatchIngesterConfig{
		Pipeline: &mockBatchPipeline{},
		PoolSize: 4,
	})
	require.NoError(t, err)
	require.NotNil(t, b)
	defer b.Close()

	assert.Equal(t, 4, b.pool.Cap())
}

func TestNewBatchIngester_DefaultPoolSize(t *testing.T) {
	b, err := NewBatchIngester(BatchIngesterConfig{
		Pipeline: &mockBatchPipeline{},
	})
	require.NoError(t, err)
	defer b.Close()

	assert.GreaterOrEqual(t, b.pool.Cap(), 1)
	assert.NotNil(t, b.logger)
}

func TestBatchIngester_ProcessFiles(t *testing.T) {
	pipe := &mockBatchPipeline{
		failPaths: map[string]bool{"/docs/broken.pdf": true},
	}
	b, err := NewBatchIngester(BatchIngesterConfig{Pipeline: pipe, PoolSize: 2})
	require.NoError(t, err)
	defer b.Close()

	paths := []string{"/docs/a.txt", "/docs/broken.pdf", "/docs/b.txt"}
	result := b.ProcessFiles(context.Background(), paths)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Failures, "/docs/broken.pdf")
	assert.Contains(t, result.Failures["/docs/broken.pdf"], "processing failed")
	assert.ElementsMatch(t, paths, pipe.processedPaths())
}

func TestBatchIngester_ProcessFiles_Empty(t *testing.T) {
	b, err := NewBatchIngester(BatchIngesterConfig{Pipeline: &mockBatchPipeline{}, PoolSize: 1})
	require.NoError(t, err)
	defer b.Close()

	result := b.ProcessFiles(context.Background(), nil)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Failures)
}

func TestBatchIngester_ProcessFiles_BoundedConcurrency(t *testing.T) {
	pipe := &mockBatchPipeline{delay: 10 * time.Millisecond}
	b, err := NewBatchIngester(BatchIngesterConfig{Pipeline: pipe, PoolSize: 2})
	require.NoError(t, err)
	defer b.Close()

	var paths []string
	for i := 0; i < 6; i++ {
		paths = append(paths, filepath.Join("/docs", "file"+string(rune('a'+i))+".txt"))
	}

	result := b.ProcessFiles(context.Background(), paths)

	assert.Equal(t, 6, result.Processed)
	assert.LessOrEqual(t, pipe.maxInFlight, 2, "pool must bound concurrency")
}

func TestBatchIngester_ProcessFiles_SubmitAfterClose(t *testing.T) {
	pipe := &mockBatchPipeline{}
	b, err := NewBatchIngester(BatchIngesterConfig{Pipeline: pipe, PoolSize: 1})
	require.NoError(t, err)

	b.Close()

	result := b.ProcessFiles(context.Background(), []string{"/docs/late.txt"})

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Failures["/docs/late.txt"], "failed to submit")
	assert.Empty(t, pipe.processedPaths())
}

func TestBatchIngester_ProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.txt"), []byte("beta"), 0o644))

	// Files in subdirectories are not descended into
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "three.txt"), []byte("gamma"), 0o644))

	pipe := &mockBatchPipeline{}
	b, err := NewBatchIngester(BatchIngesterConfig{Pipeline: pipe, PoolSize: 2})
	require.NoError(t, err)
	defer b.Close()

	result, err := b.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "one.txt"),
		filepath.Join(dir, "two.txt"),
	}, pipe.processedPaths())
}

func TestBatchIngester_ProcessDirectory_ReadError(t *testing.T) {
	b, err := NewBatchIngester(BatchIngesterConfig{Pipeline: &mockBatchPipeline{}, PoolSize: 1})
	require.NoError(t, err)
	defer b.Close()

	_, err = b.ProcessDirectory(context.Background(), "/nonexistent/path")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read directory")
}
