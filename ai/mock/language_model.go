package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/docchat/ai"
)

// MockLanguageModel is a test double for ai.LanguageModel.
// It is safe for concurrent use.
type MockLanguageModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns the next scripted completion, or echoes the prompt.
	CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (string, error)

	// StreamFunc is called by Stream if set.
	// If nil, Stream emits the configured fragments, or the prompt split on spaces.
	StreamFunc func(ctx context.Context, req ai.CompletionRequest, fn ai.FragmentFunc) error

	mu          sync.Mutex
	completions []string
	fragments   []string
	requests    []ai.CompletionRequest
}

func NewMockLanguageModel() *MockLanguageModel {
	return &MockLanguageModel{}
}

// WithCompletions scripts the values returned by successive Complete calls.
func (m *MockLanguageModel) WithCompletions(completions ...string) *MockLanguageModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, completions...)
	return m
}

// WithFragments sets the fragments emitted by every Stream call.
func (m *MockLanguageModel) WithFragments(fragments ...string) *MockLanguageModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fragments = fragments
	return m
}

func (m *MockLanguageModel) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	m.record(req)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.completions) > 0 {
		next := m.completions[0]
		m.completions = m.completions[1:]
		return next, nil
	}
	return req.Prompt, nil
}

func (m *MockLanguageModel) Stream(ctx context.Context, req ai.CompletionRequest, fn ai.FragmentFunc) error {
	m.record(req)

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req, fn)
	}

	m.mu.Lock()
	fragments := m.fragments
	m.mu.Unlock()
	if fragments == nil {
		fragments = strings.SplitAfter(req.Prompt, " ")
	}

	for _, fragment := range fragments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, fragment); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockLanguageModel) record(req ai.CompletionRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
}

// Requests returns every request received so far.
func (m *MockLanguageModel) Requests() []ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockLanguageModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockLanguageModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.completions = nil
	m.fragments = nil
	m.CompleteFunc = nil
	m.StreamFunc = nil
}
