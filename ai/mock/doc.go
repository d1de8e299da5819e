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

// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.LanguageModel
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies.
//
// # Usage in Tests
//
//	provider := mock.NewMockProvider()
//	llm := provider.GetMockLanguageModel().
//	    WithCompletions("What is the refund window?").
//	    WithFragments("Thirty ", "days.")
//
//	// Inspect what the code under test sent
//	reqs := llm.Requests()
//
// # Default Behavior
//
//   - MockEmbedder: bag-of-words vectors, so texts sharing words are similar
//   - MockLanguageModel: scripted completions and fragments, else echoes the prompt
//   - MockProvider: aggregates the two
package mock
