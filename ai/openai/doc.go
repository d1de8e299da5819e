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

// Package openai implements the ai interfaces using langchaingo's OpenAI
// client. It works against OpenAI itself or any compatible server such as
// Ollama or vLLM.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	    ai.WithChatModel("qwen2.5:3b"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "sample text")
//	err = provider.LanguageModel().Stream(ctx, ai.CompletionRequest{
//	    Temperature: config.AnswerTemperature,
//	    Prompt:      "Say hello",
//	}, func(ctx context.Context, fragment string) error {
//	    fmt.Print(fragment)
//	    return nil
//	})
//
// Streaming uses llms.WithStreamingFunc; fragments are delivered in the
// order the server sends them.
package openai
