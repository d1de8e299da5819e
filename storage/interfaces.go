package storage

import (
	"context"

	"github.com/poiesic/docchat/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds chunks in a namespace similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first); equal scores
	// are ordered by chunk ID so a fixed snapshot always yields the same order.
	FindSimilar(ctx context.Context, namespace string, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// ChunkRepository provides operations for managing document chunks.
type ChunkRepository interface {
	Repository

	// UpsertChunks writes chunks, replacing any chunk with the same namespace and ID.
	// Sets InsertedAt on first write and UpdatedAt on every write.
	// Returns the chunks with timestamps populated.
	UpsertChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, namespace string, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, namespace string, ids ...core.ID) ([]*core.Chunk, error)

	// GetDocumentChunks returns a document's chunks ordered by Index.
	GetDocumentChunks(ctx context.Context, namespace string, documentID core.ID) ([]*core.Chunk, error)

	// DeleteDocument removes every chunk of a document and returns how many were removed.
	DeleteDocument(ctx context.Context, namespace string, documentID core.ID) (int, error)

	// CountChunks returns the number of chunks stored in a namespace.
	CountChunks(ctx context.Context, namespace string) (int, error)

	// ForEachChunk calls fn with batches of up to batchSize chunks from a namespace.
	// Iteration stops at the first error returned by fn.
	ForEachChunk(ctx context.Context, namespace string, batchSize int, fn func([]*core.Chunk) error) error
}
