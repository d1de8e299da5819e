package ai

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CompletionRequest describes a single chat completion.
type CompletionRequest struct {
	// Model overrides the provider's default chat model when set.
	Model string

	// Temperature controls sampling. Zero yields deterministic output.
	Temperature float64

	// System is the system instruction text.
	System string

	// Prompt is the human turn.
	Prompt string
}

// FragmentFunc receives streamed output in arrival order.
// Returning an error aborts the stream.
type FragmentFunc func(ctx context.Context, fragment string) error

// LanguageModel produces text completions.
type LanguageModel interface {
	// Complete runs a non-streaming completion and returns the full text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Stream runs a streaming completion, calling fn for every fragment.
	// It returns once the model has finished or ctx is cancelled.
	Stream(ctx context.Context, req CompletionRequest, fn FragmentFunc) error
}

// AIProvider aggregates the AI services used by docchat.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// LanguageModel returns the chat completion service.
	// The returned LanguageModel is safe for concurrent use.
	LanguageModel() LanguageModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
