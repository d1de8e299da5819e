package rag

import (
	"context"
	"log/slog"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/prompts"
)

// streamBuffer is the number of fragments queued ahead of a slow consumer.
const streamBuffer = 16

// Generator streams answers grounded in retrieved context.
type Generator struct {
	llm         ai.LanguageModel
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewGenerator creates a generator. model may be empty to use the language
// model's default.
func NewGenerator(llm ai.LanguageModel, model string, temperature float64) (*Generator, error) {
	if llm == nil {
		return nil, ErrLanguageModelRequired
	}
	if temperature < 0 || temperature > 2 {
		return nil, ErrInvalidTemperature
	}
	return &Generator{
		llm:         llm,
		model:       model,
		temperature: temperature,
		logger:      slog.Default().With("component", "generator"),
	}, nil
}

// Generate starts streaming an answer to question using contextText as the
// only source of truth. contextText may be empty, in which case the prompt
// instructs the model to say the information is missing. Cancelling ctx
// stops the model call and closes the stream with ctx's error.
func (g *Generator) Generate(ctx context.Context, contextText, question string, locale core.Locale) *Stream {
	system, human, err := prompts.For(locale).Answer.Render(map[string]any{
		prompts.KeyContext:  contextText,
		prompts.KeyQuestion: question,
	})
	if err != nil {
		return failedStream(&StageError{Stage: StageGenerate, Err: err})
	}

	req := ai.CompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		System:      system,
		Prompt:      human,
	}

	stream := newStream(streamBuffer)
	go func() {
		err := g.llm.Stream(ctx, req, func(ctx context.Context, text string) error {
			if text == "" {
				return nil
			}
			select {
			case stream.fragments <- Fragment{Text: text}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			g.logger.Error("answer stream failed", "stage", StageGenerate, "locale", locale, "err", err)
			err = &StageError{Stage: StageGenerate, Err: err}
		}
		stream.finish(err)
	}()
	return stream
}
