package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
	"github.com/poiesic/docchat/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) storage.ChunkRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

// addChunks stores n chunks of one document with a placeholder vector.
func addChunks(t *testing.T, repo storage.ChunkRepository, namespace string, n int) []*core.Chunk {
	t.Helper()
	doc := core.IDFromContent("doc:" + namespace)
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			Id:         core.ChunkID(namespace, doc, i),
			DocumentID: doc,
			Namespace:  namespace,
			Index:      i,
			Text:       fmt.Sprintf("chunk %d text", i),
			Source:     "test.txt",
			Vector:     []float32{1, 0, 0},
		}
	}
	added, err := repo.UpsertChunks(context.Background(), chunks...)
	require.NoError(t, err)
	return added
}

func TestChunkIterator_Basic(t *testing.T) {
	repo := setupTestDB(t)
	addChunks(t, repo, "docs", 3)

	it := NewChunkIterator(repo, "docs", 10)

	var batches [][]*core.Chunk
	err := it.ForEach(context.Background(), func(chunks []*core.Chunk) error {
		batches = append(batches, chunks)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}

func TestChunkIterator_Batching(t *testing.T) {
	repo := setupTestDB(t)
	addChunks(t, repo, "docs", 10)

	it := NewChunkIterator(repo, "docs", 3)

	var sizes []int
	err := it.ForEach(context.Background(), func(chunks []*core.Chunk) error {
		sizes = append(sizes, len(chunks))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3, 1}, sizes)
}

func TestChunkIterator_NamespaceIsolation(t *testing.T) {
	repo := setupTestDB(t)
	addChunks(t, repo, "docs", 4)
	addChunks(t, repo, "other", 2)

	seen := 0
	err := NewChunkIterator(repo, "other", 10).ForEach(context.Background(), func(chunks []*core.Chunk) error {
		for _, c := range chunks {
			assert.Equal(t, "other", c.Namespace)
		}
		seen += len(chunks)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestChunkIterator_Empty(t *testing.T) {
	repo := setupTestDB(t)

	called := false
	err := NewChunkIterator(repo, "docs", 10).ForEach(context.Background(), func(chunks []*core.Chunk) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestChunkIterator_Defaults(t *testing.T) {
	repo := setupTestDB(t)
	it := NewChunkIterator(repo, "", 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
	assert.Equal(t, core.DefaultNamespace, it.namespace)
}

func TestChunkIterator_ErrorStops(t *testing.T) {
	repo := setupTestDB(t)
	addChunks(t, repo, "docs", 10)

	boom := errors.New("boom")
	calls := 0
	err := NewChunkIterator(repo, "docs", 2).ForEach(context.Background(), func(chunks []*core.Chunk) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_Cancelled(t *testing.T) {
	repo := setupTestDB(t)
	addChunks(t, repo, "docs", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewChunkIterator(repo, "docs", 2).ForEach(ctx, func(chunks []*core.Chunk) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
