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

// Package ai provides abstractions for the AI services used by docchat.
//
// The package defines three interfaces:
//
//   - Embedder: generates vector embeddings from text
//   - LanguageModel: produces chat completions, buffered or streamed
//   - AIProvider: aggregates both for convenient initialization
//
// Implementations live in subpackages. The openai package talks to any
// OpenAI-compatible endpoint through langchaingo; the mock package offers
// deterministic doubles for tests.
//
// # Configuration
//
// Config carries hosts, models and sampling temperatures:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	    ai.WithChatModel("qwen2.5:3b"),
//	)
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// Query rewriting runs at RewriteTemperature (0 by default) so the same
// conversation always produces the same standalone question. Answers use
// AnswerTemperature.
//
// # Helpers
//
// RetryWithBackoff retries transient failures with exponential backoff and
// NormalizeVector scales embeddings to unit length so that a dot product
// equals cosine similarity.
package ai
