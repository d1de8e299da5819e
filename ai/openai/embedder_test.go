package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
)

func TestEmbedder(t *testing.T) {
	var seen [][]string
	client := embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		seen = append(seen, texts)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{float32(len(text)), 1}
		}
		return out, nil
	})

	e, err := newEmbedderWithClient(client)
	require.NoError(t, err)

	t.Run("single text strips newlines", func(t *testing.T) {
		vector, err := e.EmbedText(context.Background(), "line one\nline two")
		require.NoError(t, err)
		assert.Equal(t, []float32{17, 1}, vector)
		assert.Equal(t, "line one line two", seen[len(seen)-1][0])
	})

	t.Run("batch preserves order", func(t *testing.T) {
		vectors, err := e.EmbedTexts(context.Background(), []string{"a", "bbb"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, float32(1), vectors[0][0])
		assert.Equal(t, float32(3), vectors[1][0])
	})
}

func TestEmbedder_Error(t *testing.T) {
	boom := errors.New("rate limited")
	e, err := newEmbedderWithClient(embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}))
	require.NoError(t, err)

	_, err = e.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
}
