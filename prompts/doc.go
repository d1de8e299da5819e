// Package prompts holds the locale-specific instruction templates for
// query rewriting and answer generation.
//
// Each supported locale has a Set with a Rewrite template (inputs
// userPrompt and conversationHistory) and an Answer template (inputs
// context and question). Templates are langchaingo chat prompt templates
// in Go template syntax; values are inserted verbatim and never parsed
// as template text.
//
//	set := prompts.For(core.LocaleArabic)
//	system, human, err := set.Answer.Render(map[string]any{
//	    prompts.KeyContext:  context,
//	    prompts.KeyQuestion: question,
//	})
package prompts
