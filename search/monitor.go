package search

import "github.com/poiesic/docchat/core"

// SearchMonitor observes the steps of a retrieval.
type SearchMonitor interface {
	Start(query string)
	AfterRetrieval(results []*core.SearchResult)
	Finish(context string)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                        {}
func (n *noopMonitor) AfterRetrieval(_ []*core.SearchResult) {}
func (n *noopMonitor) Finish(_ string)                       {}

// LogMonitor reports retrieval steps to a callback, one line per step.
type LogMonitor struct {
	Printf func(format string, args ...any)
}

var _ SearchMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) Start(query string) {
	m.Printf("query: %q", query)
}

func (m *LogMonitor) AfterRetrieval(results []*core.SearchResult) {
	for i, r := range results {
		m.Printf("hit %d: score=%.4f source=%s index=%d", i+1, r.Score, r.Chunk.Source, r.Chunk.Index)
	}
}

func (m *LogMonitor) Finish(context string) {
	m.Printf("context: %d bytes", len(context))
}
