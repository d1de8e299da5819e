package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/docchat/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LanguageModel implements ai.LanguageModel on top of a langchaingo model.
type LanguageModel struct {
	client       llms.Model
	defaultModel string
	logger       *slog.Logger
}

var _ ai.LanguageModel = (*LanguageModel)(nil)

// newLanguageModel is an internal constructor that returns the concrete type.
func newLanguageModel(config *ai.Config) (*LanguageModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return newLanguageModelWithClient(client, config.ChatModel), nil
}

// newLanguageModelWithClient wraps an existing langchaingo model.
func newLanguageModelWithClient(client llms.Model, defaultModel string) *LanguageModel {
	return &LanguageModel{
		client:       client,
		defaultModel: defaultModel,
		logger:       slog.Default().With("component", "openai-llm"),
	}
}

// NewLanguageModel creates a chat model client using the provided configuration.
//
// Returns ai.LanguageModel interface to enforce abstraction.
func NewLanguageModel(config *ai.Config) (ai.LanguageModel, error) {
	return newLanguageModel(config)
}

// Complete runs a buffered completion.
func (m *LanguageModel) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	m.logger.Debug("generating completion", "model", m.model(req), "temperature", req.Temperature)

	response, err := m.client.GenerateContent(ctx, messages(req), m.callOptions(req)...)
	if err != nil {
		m.logger.Error("failed to generate completion", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptyCompletion
	}
	return response.Choices[0].Content, nil
}

// Stream runs a streaming completion, forwarding every fragment to fn.
func (m *LanguageModel) Stream(ctx context.Context, req ai.CompletionRequest, fn ai.FragmentFunc) error {
	m.logger.Debug("streaming completion", "model", m.model(req), "temperature", req.Temperature)

	opts := append(m.callOptions(req), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		return fn(ctx, string(chunk))
	}))

	_, err := m.client.GenerateContent(ctx, messages(req), opts...)
	if err != nil {
		m.logger.Error("streaming completion failed", "err", err)
		return err
	}
	return nil
}

func (m *LanguageModel) model(req ai.CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return m.defaultModel
}

func (m *LanguageModel) callOptions(req ai.CompletionRequest) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if model := m.model(req); model != "" {
		opts = append(opts, llms.WithModel(model))
	}
	return opts
}

func messages(req ai.CompletionRequest) []llms.MessageContent {
	var content []llms.MessageContent
	if req.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	return append(content, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))
}
