package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
)

// Retriever fetches the context for a query.
type Retriever interface {
	RetrieveContext(ctx context.Context, query string) (string, []*core.SearchResult, error)
}

// Request is a chat turn: the conversation so far, ending with the
// question to answer, and an optional locale tag.
type Request struct {
	Messages []core.Message `json:"messages"`
	Locale   string         `json:"locale,omitempty"`
}

// Answer is a fully buffered response.
type Answer struct {
	Locale  core.Locale
	Query   string
	Sources []*core.SearchResult
	Text    string
}

// Pipeline runs rewrite, retrieval and generation for a chat request.
type Pipeline struct {
	retriever Retriever
	rewriter  *Rewriter
	generator *Generator
	logger    *slog.Logger

	rewriteModel       string
	answerModel        string
	rewriteTemperature float64
	answerTemperature  float64
	attempts           int
	retryDelay         time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithAIConfig applies the model, temperature and retry settings of cfg.
func WithAIConfig(cfg *ai.Config) Option {
	return func(p *Pipeline) error {
		if cfg == nil {
			return nil
		}
		cfg.Normalize()
		p.rewriteModel = cfg.RewriteModel
		p.answerModel = cfg.ChatModel
		p.rewriteTemperature = cfg.RewriteTemperature
		p.answerTemperature = cfg.AnswerTemperature
		p.attempts = cfg.MaxRetries
		p.retryDelay = cfg.RetryDelay
		return nil
	}
}

// WithRewriteModel sets the model used for query rewriting.
func WithRewriteModel(model string, temperature float64) Option {
	return func(p *Pipeline) error {
		p.rewriteModel = model
		p.rewriteTemperature = temperature
		return nil
	}
}

// WithAnswerModel sets the model used for answer generation.
func WithAnswerModel(model string, temperature float64) Option {
	return func(p *Pipeline) error {
		p.answerModel = model
		p.answerTemperature = temperature
		return nil
	}
}

// WithRetries sets the attempts made for the rewrite call.
// Default is 2, i.e. one retry.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			return ai.ErrInvalidMaxAttempts
		}
		p.attempts = attempts
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
		p.logger = logger.With("component", "rag")
		return nil
	}
}

// NewPipeline creates a query pipeline answering from retriever with llm.
func NewPipeline(llm ai.LanguageModel, retriever Retriever, opts ...Option) (*Pipeline, error) {
	if llm == nil {
		return nil, ErrLanguageModelRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	defaults := ai.DefaultConfig()
	p := &Pipeline{
		retriever:          retriever,
		logger:             slog.Default().With("component", "rag"),
		rewriteTemperature: defaults.RewriteTemperature,
		answerTemperature:  defaults.AnswerTemperature,
		attempts:           defaults.MaxRetries,
		retryDelay:         defaults.RetryDelay,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Built after options so they get the final settings
	rewriter, err := NewRewriter(llm, p.rewriteModel, p.rewriteTemperature, p.attempts, p.retryDelay)
	if err != nil {
		return nil, err
	}
	rewriter.logger = p.logger

	generator, err := NewGenerator(llm, p.answerModel, p.answerTemperature)
	if err != nil {
		return nil, err
	}
	generator.logger = p.logger

	p.rewriter = rewriter
	p.generator = generator
	return p, nil
}

// Answer validates req, rewrites the question, retrieves context and starts
// streaming the answer. Invalid requests return core validation errors
// before any model call; upstream failures return a *StageError. Errors
// raised while streaming are reported by the Stream.
func (p *Pipeline) Answer(ctx context.Context, req Request) (*Stream, error) {
	if err := core.ValidateMessages(req.Messages); err != nil {
		return nil, err
	}

	locale := core.ParseLocale(req.Locale)
	question := core.Question(req.Messages)
	history := core.FormatHistory(req.Messages)
	logger := p.logger.With("locale", locale)

	query, err := p.rewriter.Rewrite(ctx, question, history, locale)
	if err != nil {
		logger.Error("query pipeline failed", "stage", StageRewrite, "err", err)
		return nil, err
	}

	contextText, sources, err := p.retriever.RetrieveContext(ctx, query)
	if err != nil {
		logger.Error("query pipeline failed", "stage", StageRetrieve, "err", err)
		return nil, &StageError{Stage: StageRetrieve, Err: err}
	}
	logger.Debug("retrieved context", "query", query, "sources", len(sources))

	stream := p.generator.Generate(ctx, contextText, query, locale)
	stream.Query = query
	stream.Sources = sources
	return stream, nil
}

// Ask runs Answer and buffers the full response.
func (p *Pipeline) Ask(ctx context.Context, req Request) (*Answer, error) {
	stream, err := p.Answer(ctx, req)
	if err != nil {
		return nil, err
	}

	text, err := stream.Text(ctx)
	if err != nil {
		return nil, err
	}

	return &Answer{
		Locale:  core.ParseLocale(req.Locale),
		Query:   stream.Query,
		Sources: stream.Sources,
		Text:    text,
	}, nil
}
