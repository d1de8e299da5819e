package prompts

import (
	"fmt"
	"strings"

	"github.com/poiesic/docchat/core"
	"github.com/tmc/langchaingo/llms"
	lcprompts "github.com/tmc/langchaingo/prompts"
)

// Template input keys.
const (
	KeyUserPrompt          = "userPrompt"
	KeyConversationHistory = "conversationHistory"
	KeyContext             = "context"
	KeyQuestion            = "question"
)

// Template is a two-message chat prompt: a system instruction and a human turn.
type Template struct {
	chat   lcprompts.ChatPromptTemplate
	inputs []string
}

func newTemplate(system, human string, inputs ...string) Template {
	return Template{
		chat: lcprompts.NewChatPromptTemplate([]lcprompts.MessageFormatter{
			lcprompts.NewSystemMessagePromptTemplate(system, inputs),
			lcprompts.NewHumanMessagePromptTemplate(human, inputs),
		}),
		inputs: inputs,
	}
}

// Inputs returns the variable names the template expects.
func (t Template) Inputs() []string {
	return t.inputs
}

// Render fills the template and returns the system and human message text.
// Every input variable must be present in values; empty strings are allowed.
func (t Template) Render(values map[string]any) (system, human string, err error) {
	for _, key := range t.inputs {
		if _, ok := values[key]; !ok {
			return "", "", fmt.Errorf("prompt: missing input %q", key)
		}
	}

	messages, err := t.chat.FormatMessages(values)
	if err != nil {
		return "", "", fmt.Errorf("prompt: %w", err)
	}

	for _, msg := range messages {
		switch msg.GetType() {
		case llms.ChatMessageTypeSystem:
			system = msg.GetContent()
		case llms.ChatMessageTypeHuman:
			human = msg.GetContent()
		}
	}
	return system, human, nil
}

// Set holds the prompts for one locale.
type Set struct {
	Locale  core.Locale
	Rewrite Template
	Answer  Template
}

var sets = map[core.Locale]Set{
	core.LocaleEnglish: {
		Locale:  core.LocaleEnglish,
		Rewrite: newTemplate(dedent(englishRewriteSystem), englishRewriteHuman, KeyUserPrompt, KeyConversationHistory),
		Answer:  newTemplate(dedent(englishAnswerSystem), englishAnswerHuman, KeyContext, KeyQuestion),
	},
	core.LocaleArabic: {
		Locale:  core.LocaleArabic,
		Rewrite: newTemplate(dedent(arabicRewriteSystem), arabicRewriteHuman, KeyUserPrompt, KeyConversationHistory),
		Answer:  newTemplate(dedent(arabicAnswerSystem), arabicAnswerHuman, KeyContext, KeyQuestion),
	},
}

// For returns the prompt set for locale. Unsupported locales get English.
func For(locale core.Locale) Set {
	if set, ok := sets[locale]; ok {
		return set
	}
	return sets[core.DefaultLocale]
}

// dedent trims the shared leading tabs used to keep the prompt
// constants readable in source.
func dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, "\t")
	}
	return strings.Join(lines, "\n")
}
