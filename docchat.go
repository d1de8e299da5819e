// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package docchat wires storage, models and pipelines into a document
// question-answering assistant.
package docchat

import (
	"io"
	"log/slog"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/ai/openai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/events"
	"github.com/poiesic/docchat/index"
	"github.com/poiesic/docchat/ingestion"
	"github.com/poiesic/docchat/rag"
	"github.com/poiesic/docchat/reembed"
	"github.com/poiesic/docchat/search"
	"github.com/poiesic/docchat/storage"
	"github.com/poiesic/docchat/storage/badger"
)

// Assistant owns the vector index and the model provider.
type Assistant struct {
	backend   *badger.Backend
	repo      *badger.ChunkRepository
	index     *index.Index
	provider  ai.AIProvider
	publisher events.Publisher
	aiConfig  *ai.Config
	namespace string
	logger    *slog.Logger
}

// Option configures an Assistant.
type Option func(*options)

type options struct {
	aiConfig  *ai.Config
	provider  ai.AIProvider
	publisher events.Publisher
	namespace string
	inMemory  bool
}

// WithAIConfig sets the model endpoints used to build the default provider.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = cfg
	}
}

// WithProvider supplies the AI provider instead of building one from the
// AI config. The assistant takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithNamespace sets the index namespace. Default is core.DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithPublisher sets where ingestion events are published.
func WithPublisher(publisher events.Publisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

// WithInMemory keeps the index in memory; the path passed to Open is ignored.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// Open opens (or creates) the index at filePath and connects the models.
func Open(filePath string, opts ...Option) (*Assistant, error) {
	o := &options{
		aiConfig:  ai.DefaultConfig(),
		publisher: events.NoopPublisher{},
		namespace: core.DefaultNamespace,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.aiConfig == nil {
		o.aiConfig = ai.DefaultConfig()
	}
	if o.publisher == nil {
		o.publisher = events.NoopPublisher{}
	}

	backend, err := badger.OpenBackend(filePath, o.inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		provider, err = openai.NewProvider(o.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	idx, err := index.New(repo, provider.Embedder(), index.WithNamespace(o.namespace))
	if err != nil {
		provider.Close()
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &Assistant{
		backend:   backend,
		repo:      repo,
		index:     idx,
		provider:  provider,
		publisher: o.publisher,
		aiConfig:  o.aiConfig,
		namespace: o.namespace,
		logger:    slog.Default().With("component", "docchat"),
	}, nil
}

func (a *Assistant) Close() error {
	// Close AI provider first
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	if err := a.repo.Close(); err != nil {
		a.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Namespace returns the index namespace the assistant reads and writes.
func (a *Assistant) Namespace() string {
	return a.namespace
}

func (a *Assistant) Index() *index.Index {
	return a.index
}

func (a *Assistant) ChunkRepository() storage.ChunkRepository {
	return a.repo
}

func (a *Assistant) Provider() ai.AIProvider {
	return a.provider
}

// NewIngestionPipeline creates an ingestion pipeline writing to the
// assistant's namespace. opts are applied after the defaults.
func (a *Assistant) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithNamespace(a.namespace),
		ingestion.WithPublisher(a.publisher),
		ingestion.WithRetries(a.aiConfig.MaxRetries, a.aiConfig.RetryDelay),
	}
	return ingestion.NewPipeline(a.index, a.provider.Embedder(), append(defaults, opts...)...)
}

// NewSearcher creates a searcher over the assistant's namespace.
func (a *Assistant) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	defaults := []search.Option{search.WithNamespace(a.namespace)}
	return search.NewSearcher(a.index, append(defaults, opts...)...)
}

// NewChatPipeline creates a query pipeline reading context from retriever,
// typically a searcher from NewSearcher.
func (a *Assistant) NewChatPipeline(retriever rag.Retriever, opts ...rag.Option) (*rag.Pipeline, error) {
	defaults := []rag.Option{rag.WithAIConfig(a.aiConfig)}
	return rag.NewPipeline(a.provider.LanguageModel(), retriever, append(defaults, opts...)...)
}

// NewReembedder creates a reembedder for the assistant's namespace using
// the provider's embedder. progress may be nil.
func (a *Assistant) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	if config == nil {
		config = reembed.DefaultConfig()
	}
	if config.Namespace == "" {
		config.Namespace = a.namespace
	}
	return reembed.NewReembedder(a.repo, a.provider.Embedder(), config, progress)
}
