package docchat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docchat/ai/mock"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/events"
	"github.com/poiesic/docchat/ingestion"
	"github.com/poiesic/docchat/rag"
	"github.com/poiesic/docchat/reembed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestAssistant(t *testing.T, opts ...Option) (*Assistant, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProvider()
	opts = append([]Option{WithInMemory(), WithProvider(provider)}, opts...)
	assistant, err := Open("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { assistant.Close() })
	return assistant, provider
}

func TestOpen(t *testing.T) {
	t.Run("create new index on disk", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "docchat.db")

		assistant, err := Open(dbPath, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, assistant)
		assert.NotNil(t, assistant.Index())
		assert.NotNil(t, assistant.ChunkRepository())
		assert.NotNil(t, assistant.Provider())
		assert.Equal(t, core.DefaultNamespace, assistant.Namespace())

		require.NoError(t, assistant.Close())

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("error when path is a file", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(filePath, []byte("test"), 0o644))

		assistant, err := Open(filePath, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, assistant)
	})

	t.Run("empty namespace", func(t *testing.T) {
		_, err := Open("", WithInMemory(), WithProvider(mock.NewMockProvider()), WithNamespace(""))
		assert.ErrorIs(t, err, core.ErrEmptyNamespace)
	})

	t.Run("custom namespace", func(t *testing.T) {
		assistant, _ := openTestAssistant(t, WithNamespace("handbook"))
		assert.Equal(t, "handbook", assistant.Namespace())
		assert.Equal(t, "handbook", assistant.Index().Namespace())
	})
}

func TestAssistant_IngestAndAsk(t *testing.T) {
	publisher := &events.MemoryPublisher{}
	assistant, provider := openTestAssistant(t, WithPublisher(publisher))
	provider.GetMockLanguageModel().
		WithCompletions("How long is the refund window?").
		WithFragments("Thirty ", "days.")

	ctx := context.Background()
	pipeline, err := assistant.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()
	assert.Equal(t, core.DefaultNamespace, pipeline.Namespace())

	result, err := pipeline.Ingest(ctx, core.Source{
		Type:   core.SourceTypeRaw,
		Source: "Refunds are accepted within thirty days of purchase.",
		Name:   "policy",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Chunks)
	require.Len(t, publisher.Messages(), 1)
	assert.Equal(t, events.SubjectIngestCompleted, publisher.Messages()[0].Subject)

	searcher, err := assistant.NewSearcher()
	require.NoError(t, err)

	chat, err := assistant.NewChatPipeline(searcher)
	require.NoError(t, err)

	answer, err := chat.Ask(ctx, rag.Request{
		Messages: []core.Message{{Role: core.RoleUser, Content: "refund window?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Thirty days.", answer.Text)
	assert.Equal(t, "How long is the refund window?", answer.Query)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "policy", answer.Sources[0].Chunk.Source)
}

func TestAssistant_IngestionOptionsOverrideDefaults(t *testing.T) {
	assistant, _ := openTestAssistant(t)

	pipeline, err := assistant.NewIngestionPipeline(ingestion.WithNamespace("other"))
	require.NoError(t, err)
	defer pipeline.Release()
	assert.Equal(t, "other", pipeline.Namespace())
}

func TestAssistant_NewReembedder(t *testing.T) {
	assistant, provider := openTestAssistant(t)
	ctx := context.Background()

	pipeline, err := assistant.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()
	_, err = pipeline.Ingest(ctx, core.Source{Type: core.SourceTypeRaw, Source: "one small document"})
	require.NoError(t, err)

	before := provider.GetMockEmbedder().CallCount()
	count, err := assistant.NewReembedder(&reembed.Config{
		BatchSize:      10,
		ReportInterval: 10,
		MaxRetries:     1,
	}, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Greater(t, provider.GetMockEmbedder().CallCount(), before)
}
