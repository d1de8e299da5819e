// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds connection and model settings for AI providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// ChatHost is the base URL for the chat completion service API.
	// Example: "https://api.openai.com/v1"
	ChatHost string

	// Token is the API key sent to both hosts. Local servers that do not
	// authenticate accept any value.
	Token string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "embeddinggemma"
	EmbeddingModel string

	// ChatModel is the model identifier used to generate answers.
	// Example: "gpt-3.5-turbo", "qwen2.5:3b"
	ChatModel string

	// RewriteModel is the model identifier used to rewrite questions.
	// Defaults to ChatModel when empty.
	RewriteModel string

	// RewriteTemperature is the sampling temperature for query rewriting.
	// Default: 0
	RewriteTemperature float64

	// AnswerTemperature is the sampling temperature for answer generation.
	// Default: 0.7
	AnswerTemperature float64

	// MaxRetries is the number of attempts made for retryable model calls.
	// Default: 2
	MaxRetries int

	// RetryDelay is the base backoff between attempts.
	// Default: 500ms
	RetryDelay time.Duration
}

type ConfigOption func(*Config)

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithHost sets both the embedding and chat hosts.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ChatHost = host
	}
}

func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

func WithRewriteModel(model string) ConfigOption {
	return func(c *Config) {
		c.RewriteModel = model
	}
}

func WithRewriteTemperature(temp float64) ConfigOption {
	return func(c *Config) {
		c.RewriteTemperature = temp
	}
}

func WithAnswerTemperature(temp float64) ConfigOption {
	return func(c *Config) {
		c.AnswerTemperature = temp
	}
}

func WithRetries(attempts int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = attempts
		c.RetryDelay = delay
	}
}

// DefaultConfig returns a configuration targeting the OpenAI API.
func DefaultConfig() *Config {
	defaultHost := "https://api.openai.com/v1"
	return &Config{
		EmbeddingHost:      defaultHost,
		ChatHost:           defaultHost,
		Token:              "none",
		EmbeddingModel:     "text-embedding-3-small",
		ChatModel:          "gpt-3.5-turbo",
		RewriteTemperature: 0,
		AnswerTemperature:  0.7,
		MaxRetries:         2,
		RetryDelay:         500 * time.Millisecond,
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize fills derived defaults and makes sure hosts end with /v1.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.ChatHost = normalizeHost(c.ChatHost)
	if c.RewriteModel == "" {
		c.RewriteModel = c.ChatModel
	}
	if c.Token == "" {
		// langchaingo refuses to build a client without a token
		c.Token = "none"
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ChatHost == "" {
		return errors.New("ai config: ChatHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.RewriteTemperature < 0 || c.RewriteTemperature > 2 {
		return errors.New("ai config: RewriteTemperature must be between 0 and 2")
	}
	if c.AnswerTemperature < 0 || c.AnswerTemperature > 2 {
		return errors.New("ai config: AnswerTemperature must be between 0 and 2")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	if c.RetryDelay < 0 {
		return errors.New("ai config: RetryDelay must not be negative")
	}
	return nil
}
