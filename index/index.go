package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Metadata keys set on documents returned by SimilaritySearch and read by
// AddDocuments.
const (
	MetadataChunkID    = "chunk_id"
	MetadataDocumentID = "document_id"
	MetadataChunkIndex = "chunk_index"
	MetadataSource     = "source"
	MetadataNamespace  = "namespace"
)

// noThreshold is below any cosine similarity.
const noThreshold = float32(-2)

var (
	ErrNoEmbedder            = errors.New("index: embedder required")
	ErrInvalidScoreThreshold = errors.New("index: score threshold must be between 0 and 1")
)

// Index is a vector index over a chunk repository. It embeds text with the
// configured embedder and stores unit-length vectors so similarity is cosine.
type Index struct {
	repo      storage.ChunkRepository
	embedder  ai.Embedder
	namespace string
	logger    *slog.Logger
}

var _ vectorstores.VectorStore = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithNamespace sets the default namespace.
func WithNamespace(namespace string) Option {
	return func(i *Index) error {
		if namespace == "" {
			return core.ErrEmptyNamespace
		}
		i.namespace = namespace
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger.With("component", "index")
		return nil
	}
}

// New creates an Index.
func New(repo storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Index, error) {
	if repo == nil {
		return nil, errors.New("index: repository required")
	}
	if embedder == nil {
		return nil, ErrNoEmbedder
	}

	idx := &Index{
		repo:      repo,
		embedder:  embedder,
		namespace: core.DefaultNamespace,
		logger:    slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Namespace returns the default namespace.
func (i *Index) Namespace() string {
	return i.namespace
}

// Embedder returns the embedder used for documents and queries.
func (i *Index) Embedder() ai.Embedder {
	return i.embedder
}

// Upsert stores pre-embedded chunks. Vectors are normalized on the way in.
func (i *Index) Upsert(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, chunk := range chunks {
		if chunk == nil {
			return core.ErrInvalidChunk
		}
		if chunk.Namespace == "" {
			chunk.Namespace = i.namespace
		}
		chunk.Vector = ai.NormalizeVector(chunk.Vector)
	}

	if _, err := i.repo.UpsertChunks(ctx, chunks...); err != nil {
		return err
	}
	i.logger.Debug("upserted chunks", "count", len(chunks), "namespace", chunks[0].Namespace)
	return nil
}

// DeleteDocument removes every chunk of a document from namespace.
func (i *Index) DeleteDocument(ctx context.Context, namespace string, documentID core.ID) (int, error) {
	if namespace == "" {
		namespace = i.namespace
	}
	return i.repo.DeleteDocument(ctx, namespace, documentID)
}

// Count returns the number of chunks stored in namespace.
func (i *Index) Count(ctx context.Context, namespace string) (int, error) {
	if namespace == "" {
		namespace = i.namespace
	}
	return i.repo.CountChunks(ctx, namespace)
}

// Search embeds query and returns up to k chunks scoring at least minScore,
// best first.
func (i *Index) Search(ctx context.Context, namespace, query string, k int, minScore float32) ([]*core.SearchResult, error) {
	if namespace == "" {
		namespace = i.namespace
	}

	vector, err := i.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return i.repo.FindSimilar(ctx, namespace, ai.NormalizeVector(vector), minScore, k)
}

// AddDocuments embeds docs and stores them as chunks. The chunk position
// and owning document are read from MetadataChunkIndex and
// MetadataDocumentID when present. Returns the stored chunk IDs.
func (i *Index) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := i.options(options)
	namespace := opts.NameSpace

	kept := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		if opts.Deduplicater != nil && opts.Deduplicater(ctx, doc) {
			continue
		}
		kept = append(kept, doc)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	texts := make([]string, len(kept))
	for n, doc := range kept {
		texts[n] = doc.PageContent
	}

	var vectors [][]float32
	var err error
	if opts.Embedder != nil {
		vectors, err = opts.Embedder.EmbedDocuments(ctx, texts)
	} else {
		vectors, err = i.embedder.EmbedTexts(ctx, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(kept) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d documents", len(vectors), len(kept))
	}

	chunks := make([]*core.Chunk, len(kept))
	ids := make([]string, len(kept))
	for n, doc := range kept {
		chunk := ChunkFromDocument(namespace, n, doc)
		chunk.Vector = vectors[n]
		chunks[n] = chunk
		ids[n] = chunk.Id.String()
	}

	if err := i.Upsert(ctx, chunks); err != nil {
		return nil, err
	}
	return ids, nil
}

// SimilaritySearch returns the numDocuments documents most similar to query.
// Scores are cosine similarities.
func (i *Index) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := i.options(options)

	threshold := noThreshold
	if opts.ScoreThreshold != 0 {
		if opts.ScoreThreshold < 0 || opts.ScoreThreshold > 1 {
			return nil, ErrInvalidScoreThreshold
		}
		threshold = opts.ScoreThreshold
	}

	var results []*core.SearchResult
	if opts.Embedder != nil {
		vector, err := opts.Embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		results, err = i.repo.FindSimilar(ctx, opts.NameSpace, ai.NormalizeVector(vector), threshold, numDocuments)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		results, err = i.Search(ctx, opts.NameSpace, query, numDocuments, threshold)
		if err != nil {
			return nil, err
		}
	}

	docs := make([]schema.Document, len(results))
	for n, result := range results {
		docs[n] = DocumentFromResult(result)
	}
	return docs, nil
}

func (i *Index) options(options []vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{NameSpace: i.namespace}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.NameSpace == "" {
		opts.NameSpace = i.namespace
	}
	return opts
}

// ChunkFromDocument converts a langchaingo document into an unembedded chunk.
// position is used as the chunk index when the metadata carries none.
func ChunkFromDocument(namespace string, position int, doc schema.Document) *core.Chunk {
	index := position
	if v, ok := doc.Metadata[MetadataChunkIndex]; ok {
		if n, ok := toInt(v); ok {
			index = n
		}
	}

	source := metadataString(doc.Metadata, MetadataSource)

	documentID := core.IDFromContent(doc.PageContent)
	if v, ok := doc.Metadata[MetadataDocumentID]; ok {
		if id, ok := toID(v); ok {
			documentID = id
		}
	}

	metadata := make(map[string]string)
	for k, v := range doc.Metadata {
		switch k {
		case MetadataChunkIndex, MetadataDocumentID, MetadataSource, MetadataChunkID, MetadataNamespace:
			continue
		}
		metadata[k] = fmt.Sprint(v)
	}

	return &core.Chunk{
		Id:         core.ChunkID(namespace, documentID, index),
		DocumentID: documentID,
		Namespace:  namespace,
		Index:      index,
		Text:       doc.PageContent,
		Source:     source,
		Metadata:   metadata,
	}
}

// DocumentFromResult converts a search hit into a langchaingo document.
func DocumentFromResult(result *core.SearchResult) schema.Document {
	chunk := result.Chunk
	metadata := make(map[string]any, len(chunk.Metadata)+5)
	for k, v := range chunk.Metadata {
		metadata[k] = v
	}
	metadata[MetadataChunkID] = chunk.Id.String()
	metadata[MetadataDocumentID] = chunk.DocumentID.String()
	metadata[MetadataChunkIndex] = chunk.Index
	metadata[MetadataSource] = chunk.Source
	metadata[MetadataNamespace] = chunk.Namespace

	return schema.Document{
		PageContent: chunk.Text,
		Metadata:    metadata,
		Score:       result.Score,
	}
}

func metadataString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func toID(v any) (core.ID, bool) {
	switch id := v.(type) {
	case core.ID:
		return id, true
	case uint64:
		return core.ID(id), true
	case string:
		return core.ParseID(id)
	}
	return 0, false
}
