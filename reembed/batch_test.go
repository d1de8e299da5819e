package reembed

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/docchat/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unnormalizedEmbedder returns vectors of magnitude 3.
func unnormalizedEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		result := make([][]float32, len(texts))
		for i := range texts {
			result[i] = []float32{1.0, 2.0, 2.0}
		}
		return result, nil
	}
	return embedder
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestBatchProcessor_Process(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	added := addChunks(t, repo, "docs", 2)

	processor := NewBatchProcessor(repo, unnormalizedEmbedder(), 3, 10*time.Millisecond)
	require.NoError(t, processor.Process(ctx, added))

	for _, chunk := range added {
		stored, err := repo.GetChunk(ctx, "docs", chunk.Id)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, magnitude(stored.Vector), 1e-5)
		assert.InDelta(t, 1.0/3.0, stored.Vector[0], 1e-5)
		assert.Equal(t, chunk.Text, stored.Text)
		assert.Equal(t, chunk.Index, stored.Index)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	repo := setupTestDB(t)
	embedder := unnormalizedEmbedder()
	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)

	require.NoError(t, processor.Process(context.Background(), nil))
	assert.Zero(t, embedder.CallCount())
}

func TestBatchProcessor_RetrySuccess(t *testing.T) {
	repo := setupTestDB(t)
	added := addChunks(t, repo, "docs", 2)

	var attempts atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("temporary error")
		}
		return [][]float32{{1, 0}, {0, 1}}, nil
	}

	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), added))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestBatchProcessor_RetryExhausted(t *testing.T) {
	repo := setupTestDB(t)
	added := addChunks(t, repo, "docs", 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("persistent error")
	}

	processor := NewBatchProcessor(repo, embedder, 2, time.Millisecond)
	err := processor.Process(context.Background(), added)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, embedder.CallCount())

	stored, err := repo.GetChunk(context.Background(), "docs", added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, stored.Vector)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	repo := setupTestDB(t)
	added := addChunks(t, repo, "docs", 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}

	err := NewBatchProcessor(repo, embedder, 1, 0).Process(context.Background(), added)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}
