package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docchat/core"
)

const (
	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 3

	// ContextSeparator joins retrieved passages.
	ContextSeparator = "\n\n"
)

// Index is the similarity search the Searcher reads from.
type Index interface {
	Search(ctx context.Context, namespace, query string, k int, minScore float32) ([]*core.SearchResult, error)
}

// Searcher retrieves the chunks most relevant to a query.
type Searcher struct {
	index     Index
	namespace string
	topK      int
	minScore  float32
	monitor   SearchMonitor
	logger    *slog.Logger
}

type Option func(*Searcher) error

func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithTopK sets the number of chunks retrieved per query.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidTopK, k)
		}
		s.topK = k
		return nil
	}
}

// WithMinScore drops hits scoring below score.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		if score < -1 || score > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidMinScore, score)
		}
		s.minScore = score
		return nil
	}
}

// WithNamespace searches namespace instead of the index default.
func WithNamespace(namespace string) Option {
	return func(s *Searcher) error {
		s.namespace = namespace
		return nil
	}
}

// WithMonitor installs a monitor that observes every retrieval.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		s.monitor = monitor
		return nil
	}
}

func NewSearcher(index Index, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		index:    index,
		topK:     DefaultTopK,
		minScore: -1,
		monitor:  &noopMonitor{},
		logger:   slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.monitor == nil {
		s.monitor = &noopMonitor{}
	}

	return s, nil
}

// TopK returns the number of chunks retrieved per query.
func (s *Searcher) TopK() int {
	return s.topK
}

// Retrieve returns at most TopK chunks ordered by descending similarity.
// An empty result is not an error.
func (s *Searcher) Retrieve(ctx context.Context, query string) ([]*core.SearchResult, error) {
	s.monitor.Start(query)

	results, err := s.index.Search(ctx, s.namespace, query, s.topK, s.minScore)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	if len(results) > s.topK {
		results = results[:s.topK]
	}

	s.monitor.AfterRetrieval(results)
	s.logger.Debug("retrieved chunks", "hits", len(results), "k", s.topK)
	return results, nil
}

// RetrieveContext retrieves chunks for query and flattens them with BuildContext.
func (s *Searcher) RetrieveContext(ctx context.Context, query string) (string, []*core.SearchResult, error) {
	results, err := s.Retrieve(ctx, query)
	if err != nil {
		return "", nil, err
	}
	text := BuildContext(results)
	s.monitor.Finish(text)
	return text, results, nil
}

// BuildContext joins the chunk texts with ContextSeparator in the order given.
// No hits yields an empty string.
func BuildContext(results []*core.SearchResult) string {
	passages := make([]string, 0, len(results))
	for _, r := range results {
		if r == nil || r.Chunk == nil {
			continue
		}
		passages = append(passages, r.Chunk.Text)
	}
	return strings.Join(passages, ContextSeparator)
}
