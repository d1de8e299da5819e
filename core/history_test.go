package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHistory(t *testing.T) {
	t.Run("excludes the current message", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "What is a vector index?"},
			{Role: RoleAssistant, Content: "A store ranked by similarity."},
			{Role: RoleUser, Content: "How big can it get?"},
		}

		got := FormatHistory(messages)

		assert.Equal(t, "Human: What is a vector index?\nAssistant: A store ranked by similarity.", got)
		assert.NotContains(t, got, "How big can it get?")
	})

	t.Run("single message has empty history", func(t *testing.T) {
		assert.Equal(t, "", FormatHistory([]Message{{Role: RoleUser, Content: "hello"}}))
	})

	t.Run("no messages", func(t *testing.T) {
		assert.Equal(t, "", FormatHistory(nil))
	})

	t.Run("keeps chronological order", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "one"},
			{Role: RoleAssistant, Content: "two"},
			{Role: RoleUser, Content: "three"},
			{Role: RoleAssistant, Content: "four"},
			{Role: RoleUser, Content: "five"},
		}

		assert.Equal(t, "Human: one\nAssistant: two\nHuman: three\nAssistant: four", FormatHistory(messages))
	})
}

func TestQuestion(t *testing.T) {
	assert.Equal(t, "", Question(nil))
	assert.Equal(t, "last", Question([]Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleUser, Content: "last"},
	}))
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		tag  string
		want Locale
	}{
		{"", LocaleEnglish},
		{"en", LocaleEnglish},
		{"ar", LocaleArabic},
		{"AR", LocaleArabic},
		{" ar ", LocaleArabic},
		{"ar-EG", LocaleArabic},
		{"en_US", LocaleEnglish},
		{"fr", LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLocale(tt.tag))
		})
	}

	assert.Equal(t, "Arabic", LocaleArabic.Language())
	assert.Equal(t, "English", LocaleEnglish.Language())
}
