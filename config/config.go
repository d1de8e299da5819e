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

// Package config loads docchat settings from a YAML file, a .env file and
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ChatTimeout   time.Duration `yaml:"chat_timeout"`
	IngestTimeout time.Duration `yaml:"ingest_timeout"`
	MaxUploadSize int64         `yaml:"max_upload_size"`
}

// StorageConfig configures the on-disk vector index.
type StorageConfig struct {
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// RetrievalConfig configures similarity search.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float32 `yaml:"min_score"`
}

// IngestionConfig configures document splitting and embedding.
type IngestionConfig struct {
	ChunkSize       int   `yaml:"chunk_size"`
	ChunkOverlap    int   `yaml:"chunk_overlap"`
	BatchSize       int   `yaml:"batch_size"`
	PoolSize        int   `yaml:"pool_size"`
	MaxDownloadSize int64 `yaml:"max_download_size"`
}

// AIConfig configures the OpenAI-compatible model endpoints.
type AIConfig struct {
	EmbeddingHost      string        `yaml:"embedding_host"`
	ChatHost           string        `yaml:"chat_host"`
	APIKeyEnv          string        `yaml:"api_key_env"`
	EmbeddingModel     string        `yaml:"embedding_model"`
	ChatModel          string        `yaml:"chat_model"`
	RewriteModel       string        `yaml:"rewrite_model,omitempty"`
	RewriteTemperature float64       `yaml:"rewrite_temperature"`
	AnswerTemperature  float64       `yaml:"answer_temperature"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryDelay         time.Duration `yaml:"retry_delay"`

	// APIKey is resolved from APIKeyEnv and never written to disk.
	APIKey string `yaml:"-"`
}

// EventsConfig configures ingestion event publishing. Events are
// disabled when NatsURL is empty.
type EventsConfig struct {
	NatsURL   string `yaml:"nats_url"`
	NatsToken string `yaml:"-"`
}

// Config is the root application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	AI        AIConfig        `yaml:"ai"`
	Events    EventsConfig    `yaml:"events"`
}

// Default returns the built-in configuration.
func Default() *Config {
	defaults := ai.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:          ":8080",
			ChatTimeout:   30 * time.Second,
			IngestTimeout: 5 * time.Minute,
			MaxUploadSize: 32 << 20,
		},
		Storage: StorageConfig{
			Path:      "docchat.db",
			Namespace: core.DefaultNamespace,
		},
		Retrieval: RetrievalConfig{
			TopK:     3,
			MinScore: -1,
		},
		Ingestion: IngestionConfig{
			ChunkSize:       1000,
			ChunkOverlap:    200,
			BatchSize:       64,
			PoolSize:        2,
			MaxDownloadSize: 32 << 20,
		},
		AI: AIConfig{
			EmbeddingHost:      defaults.EmbeddingHost,
			ChatHost:           defaults.ChatHost,
			APIKeyEnv:          "OPENAI_API_KEY",
			EmbeddingModel:     defaults.EmbeddingModel,
			ChatModel:          defaults.ChatModel,
			RewriteTemperature: defaults.RewriteTemperature,
			AnswerTemperature:  defaults.AnswerTemperature,
			MaxRetries:         defaults.MaxRetries,
			RetryDelay:         defaults.RetryDelay,
		},
	}
}

// LoadDotEnv loads variables from the given .env files, or ./.env when
// none are given, without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path or a missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnv() {
	c.LogLevel = envStr("DOCCHAT_LOG_LEVEL", c.LogLevel)

	c.Server.Addr = envStr("DOCCHAT_ADDR", c.Server.Addr)
	c.Server.ChatTimeout = envDuration("DOCCHAT_CHAT_TIMEOUT", c.Server.ChatTimeout)

	c.Storage.Path = envStr("DOCCHAT_DB_PATH", c.Storage.Path)
	c.Storage.Namespace = envStr("DOCCHAT_NAMESPACE", c.Storage.Namespace)

	c.Retrieval.TopK = envInt("DOCCHAT_TOP_K", c.Retrieval.TopK)

	c.Ingestion.ChunkSize = envInt("DOCCHAT_CHUNK_SIZE", c.Ingestion.ChunkSize)
	c.Ingestion.ChunkOverlap = envInt("DOCCHAT_CHUNK_OVERLAP", c.Ingestion.ChunkOverlap)

	if host := envStr("DOCCHAT_AI_HOST", ""); host != "" {
		c.AI.EmbeddingHost = host
		c.AI.ChatHost = host
	}
	c.AI.EmbeddingHost = envStr("DOCCHAT_EMBEDDING_HOST", c.AI.EmbeddingHost)
	c.AI.ChatHost = envStr("DOCCHAT_CHAT_HOST", c.AI.ChatHost)
	c.AI.EmbeddingModel = envStr("DOCCHAT_EMBEDDING_MODEL", c.AI.EmbeddingModel)
	c.AI.ChatModel = envStr("DOCCHAT_CHAT_MODEL", c.AI.ChatModel)
	c.AI.RewriteModel = envStr("DOCCHAT_REWRITE_MODEL", c.AI.RewriteModel)
	if c.AI.APIKeyEnv != "" {
		c.AI.APIKey = os.Getenv(c.AI.APIKeyEnv)
	}

	c.Events.NatsURL = envStr("NATS_URL", c.Events.NatsURL)
	c.Events.NatsToken = envStr("NATS_TOKEN", c.Events.NatsToken)
}

// Validate checks settings that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("config: storage.path is required")
	}
	if c.Storage.Namespace == "" {
		return errors.New("config: storage.namespace is required")
	}
	if c.Retrieval.TopK < 1 {
		return errors.New("config: retrieval.top_k must be at least 1")
	}
	if c.Ingestion.ChunkSize < 1 {
		return errors.New("config: ingestion.chunk_size must be at least 1")
	}
	if c.Ingestion.ChunkOverlap < 0 || c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		return errors.New("config: ingestion.chunk_overlap must be between 0 and chunk_size")
	}
	if c.Server.ChatTimeout <= 0 {
		return errors.New("config: server.chat_timeout must be positive")
	}
	return c.AIConfig().Validate()
}

// AIConfig converts the model settings to an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithChatHost(c.AI.ChatHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithChatModel(c.AI.ChatModel),
		ai.WithRewriteModel(c.AI.RewriteModel),
		ai.WithRewriteTemperature(c.AI.RewriteTemperature),
		ai.WithAnswerTemperature(c.AI.AnswerTemperature),
		ai.WithRetries(c.AI.MaxRetries, c.AI.RetryDelay),
	}
	if c.AI.APIKey != "" {
		opts = append(opts, ai.WithToken(c.AI.APIKey))
	}
	return ai.NewConfig(opts...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
