package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/events"
	"github.com/poiesic/docchat/index"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultBatchSize    = 64

	// DefaultMaxDownloadSize caps URL downloads at 32 MiB.
	DefaultMaxDownloadSize = 32 << 20
)

// Index is the write side of the vector index used by the pipeline.
type Index interface {
	Upsert(ctx context.Context, chunks []*core.Chunk) error
	DeleteDocument(ctx context.Context, namespace string, documentID core.ID) (int, error)
}

// Pipeline loads a source, splits it into overlapping chunks, embeds
// them and upserts them into the index.
type Pipeline struct {
	store        Index
	embedder     ai.Embedder
	pool         *ants.Pool
	publisher    events.Publisher
	httpClient   *http.Client
	namespace    string
	chunkSize    int
	chunkOverlap int
	batchSize    int
	maxRetries   int
	retryDelay   time.Duration
	maxDownload  int64
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunkSize sets the maximum chunk length in characters.
// Default is 1000.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidChunking
		}
		p.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the number of characters shared by adjacent chunks.
// Default is 200.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		if overlap < 0 {
			return ErrInvalidChunking
		}
		p.chunkOverlap = overlap
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithNamespace sets the index namespace chunks are written to.
func WithNamespace(namespace string) Option {
	return func(p *Pipeline) error {
		if namespace == "" {
			return core.ErrEmptyNamespace
		}
		p.namespace = namespace
		return nil
	}
}

// WithHTTPClient sets the client used to fetch URL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Pipeline) error {
		if client == nil {
			client = http.DefaultClient
		}
		p.httpClient = client
		return nil
	}
}

// WithMaxDownloadSize limits the size of URL bodies in bytes.
func WithMaxDownloadSize(size int64) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultMaxDownloadSize
		}
		p.maxDownload = size
		return nil
	}
}

// WithPublisher sets where ingestion outcome events are published.
func WithPublisher(publisher events.Publisher) Option {
	return func(p *Pipeline) error {
		if publisher == nil {
			publisher = events.NoopPublisher{}
		}
		p.publisher = publisher
		return nil
	}
}

// WithRetries sets the embedding attempts per batch and the base backoff.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			return ai.ErrInvalidMaxAttempts
		}
		p.maxRetries = attempts
		p.retryDelay = delay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store Index, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:        store,
		embedder:     embedder,
		pool:         pool,
		publisher:    events.NoopPublisher{},
		httpClient:   &http.Client{Timeout: time.Minute},
		namespace:    core.DefaultNamespace,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		batchSize:    DefaultBatchSize,
		maxRetries:   2,
		retryDelay:   500 * time.Millisecond,
		maxDownload:  DefaultMaxDownloadSize,
		logger:       slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.chunkOverlap >= p.chunkSize {
		p.Release()
		return nil, ErrInvalidChunking
	}

	return p, nil
}

// Namespace returns the namespace chunks are written to.
func (p *Pipeline) Namespace() string {
	return p.namespace
}

// Ingest loads, splits, embeds and indexes a single source. Chunks from a
// previous ingestion of the same source are replaced. Invalid sources
// return core validation errors; failures inside a stage return *StageError.
func (p *Pipeline) Ingest(ctx context.Context, source core.Source) (*core.IngestResult, error) {
	start := time.Now()
	jobID := uuid.NewString()
	logger := p.logger.With("job", jobID, "type", source.Type, "source", source.Label())

	if err := core.ValidateSource(source); err != nil {
		return nil, err
	}

	result := &core.IngestResult{
		JobID:      jobID,
		DocumentID: source.DocumentID(),
		Namespace:  p.namespace,
		Source:     source,
	}

	err := p.run(ctx, source, result, logger)
	result.Duration = time.Since(start)
	p.publish(source, result, err, logger)

	if err != nil {
		logger.Error("ingestion failed", "err", err)
		return nil, err
	}

	logger.Info("ingested source",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"replaced", result.Replaced,
		"duration", result.Duration)
	return result, nil
}

// Remove deletes every chunk previously ingested from source and returns
// how many were removed.
func (p *Pipeline) Remove(ctx context.Context, source core.Source) (int, error) {
	if err := core.ValidateSource(source); err != nil {
		return 0, err
	}
	removed, err := p.store.DeleteDocument(ctx, p.namespace, source.DocumentID())
	if err != nil {
		return 0, stageError(StageUpsert, err)
	}
	p.logger.Info("removed source", "source", source.Label(), "chunks", removed)
	return removed, nil
}

func (p *Pipeline) run(ctx context.Context, source core.Source, result *core.IngestResult, logger *slog.Logger) error {
	docs, err := p.load(ctx, source)
	if err != nil {
		return stageError(StageLoad, err)
	}
	result.Documents = len(docs)
	logger.Debug("loaded source", "documents", len(docs))

	chunks, err := p.split(docs, source, result.DocumentID)
	if err != nil {
		return stageError(StageSplit, err)
	}
	if len(chunks) == 0 {
		return stageError(StageSplit, ErrNoContent)
	}
	logger.Debug("split source", "chunks", len(chunks))

	if err := p.embedChunks(ctx, chunks); err != nil {
		return stageError(StageEmbed, err)
	}

	replaced, err := p.store.DeleteDocument(ctx, p.namespace, result.DocumentID)
	if err != nil {
		return stageError(StageUpsert, err)
	}
	result.Replaced = replaced

	if err := p.store.Upsert(ctx, chunks); err != nil {
		return stageError(StageUpsert, err)
	}
	result.Chunks = len(chunks)
	return nil
}

// split cuts loaded documents into overlapping chunks. Chunk indexes run
// across the whole source, so a multi-page PDF yields one ordered sequence.
func (p *Pipeline) split(docs []schema.Document, source core.Source, documentID core.ID) ([]*core.Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)

	pieces, err := textsplitter.SplitDocuments(splitter, docs)
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		if strings.TrimSpace(piece.PageContent) == "" {
			continue
		}
		if piece.Metadata == nil {
			piece.Metadata = make(map[string]any)
		}
		piece.Metadata[index.MetadataDocumentID] = documentID
		piece.Metadata[index.MetadataSource] = source.Label()
		piece.Metadata[index.MetadataChunkIndex] = len(chunks)

		chunks = append(chunks, index.ChunkFromDocument(p.namespace, len(chunks), piece))
	}
	return chunks, nil
}

func (p *Pipeline) publish(source core.Source, result *core.IngestResult, err error, logger *slog.Logger) {
	event := events.NewIngestEvent(result.JobID, source, p.namespace)
	event.DurationMs = result.Duration.Milliseconds()

	subject := events.SubjectIngestCompleted
	if err != nil {
		subject = events.SubjectIngestFailed
		event.Error = err.Error()
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			event.Stage = stageErr.Stage
		}
	} else {
		event.Chunks = result.Chunks
	}

	if pubErr := p.publisher.Publish(subject, event); pubErr != nil {
		logger.Warn("failed to publish ingest event", "subject", subject, "err", pubErr)
	}
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
