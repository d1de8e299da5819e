package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/prompts"
)

// Rewriter turns the latest user message into a standalone search query.
type Rewriter struct {
	llm         ai.LanguageModel
	model       string
	temperature float64
	attempts    int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewRewriter creates a rewriter. model may be empty to use the language
// model's default.
func NewRewriter(llm ai.LanguageModel, model string, temperature float64, attempts int, retryDelay time.Duration) (*Rewriter, error) {
	if llm == nil {
		return nil, ErrLanguageModelRequired
	}
	if temperature < 0 || temperature > 2 {
		return nil, ErrInvalidTemperature
	}
	if attempts < 1 {
		return nil, ai.ErrInvalidMaxAttempts
	}
	return &Rewriter{
		llm:         llm,
		model:       model,
		temperature: temperature,
		attempts:    attempts,
		retryDelay:  retryDelay,
		logger:      slog.Default().With("component", "rewriter"),
	}, nil
}

// Rewrite returns a single search query for userPrompt. history is the
// formatted transcript of earlier turns and may be empty. A blank model
// response yields userPrompt unchanged; a model failure is returned as a
// *StageError and never replaced by the raw prompt.
func (r *Rewriter) Rewrite(ctx context.Context, userPrompt, history string, locale core.Locale) (string, error) {
	system, human, err := prompts.For(locale).Rewrite.Render(map[string]any{
		prompts.KeyUserPrompt:          userPrompt,
		prompts.KeyConversationHistory: history,
	})
	if err != nil {
		return "", &StageError{Stage: StageRewrite, Err: err}
	}

	req := ai.CompletionRequest{
		Model:       r.model,
		Temperature: r.temperature,
		System:      system,
		Prompt:      human,
	}

	var output string
	err = ai.RetryWithBackoff(ctx, func() error {
		var err error
		output, err = r.llm.Complete(ctx, req)
		return err
	}, r.attempts, r.retryDelay)
	if err != nil {
		return "", &StageError{Stage: StageRewrite, Err: err}
	}

	query := cleanQuery(output)
	if query == "" {
		r.logger.Debug("empty rewrite, using prompt verbatim", "locale", locale)
		return userPrompt, nil
	}

	r.logger.Debug("rewrote query", "locale", locale, "query", query)
	return query, nil
}

// cleanQuery trims whitespace and a pair of wrapping quotes that some
// models add despite being told not to.
func cleanQuery(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, "'", "«»", "“”"} {
		left, right := q, q
		if r := []rune(q); len(r) == 2 {
			left, right = string(r[0]), string(r[1])
		}
		if len(s) > len(left)+len(right) && strings.HasPrefix(s, left) && strings.HasSuffix(s, right) {
			return strings.TrimSpace(s[len(left) : len(s)-len(right)])
		}
	}
	return s
}
