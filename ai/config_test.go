package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost)
	assert.Equal(t, "https://api.openai.com/v1", cfg.ChatHost)
	assert.Equal(t, "gpt-3.5-turbo", cfg.ChatModel)
	assert.Equal(t, 0.0, cfg.RewriteTemperature)
	assert.Equal(t, 0.7, cfg.AnswerTemperature)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gpt-3.5-turbo", cfg.RewriteModel)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ChatHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithChatHost("http://chat:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://chat:9090/v1", cfg.ChatHost)
	})

	t.Run("with models and temperatures", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("embeddinggemma"),
			WithChatModel("qwen2.5:3b"),
			WithRewriteModel("qwen2.5:0.5b"),
			WithRewriteTemperature(0.1),
			WithAnswerTemperature(0.2),
			WithToken("sk-test"),
			WithRetries(4, time.Second),
		)

		assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
		assert.Equal(t, "qwen2.5:3b", cfg.ChatModel)
		assert.Equal(t, "qwen2.5:0.5b", cfg.RewriteModel)
		assert.Equal(t, 0.1, cfg.RewriteTemperature)
		assert.Equal(t, 0.2, cfg.AnswerTemperature)
		assert.Equal(t, "sk-test", cfg.Token)
		assert.Equal(t, 4, cfg.MaxRetries)
		assert.Equal(t, time.Second, cfg.RetryDelay)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, ChatHost: tt.host}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.ChatHost)
		})
	}

	t.Run("fills rewrite model and token", func(t *testing.T) {
		cfg := &Config{ChatModel: "gpt-4o-mini"}
		cfg.Normalize()

		assert.Equal(t, "gpt-4o-mini", cfg.RewriteModel)
		assert.Equal(t, "none", cfg.Token)
	})

	t.Run("keeps explicit rewrite model", func(t *testing.T) {
		cfg := &Config{ChatModel: "gpt-4o", RewriteModel: "gpt-4o-mini"}
		cfg.Normalize()

		assert.Equal(t, "gpt-4o-mini", cfg.RewriteModel)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:     "http://localhost:11434",
			ChatHost:          "http://localhost:11434",
			EmbeddingModel:    "embeddinggemma",
			ChatModel:         "qwen2.5:3b",
			AnswerTemperature: 0.7,
			MaxRetries:        1,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		require.NoError(t, cfg.Validate())

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing chat host", func(c *Config) { c.ChatHost = "" }, "ChatHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing chat model", func(c *Config) { c.ChatModel = "" }, "ChatModel"},
		{"negative rewrite temperature", func(c *Config) { c.RewriteTemperature = -0.1 }, "RewriteTemperature"},
		{"answer temperature too high", func(c *Config) { c.AnswerTemperature = 2.5 }, "AnswerTemperature"},
		{"no retries", func(c *Config) { c.MaxRetries = 0 }, "MaxRetries"},
		{"negative retry delay", func(c *Config) { c.RetryDelay = -time.Second }, "RetryDelay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
