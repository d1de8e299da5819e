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

// Package rag answers questions over the indexed documents.
//
// A question goes through three sequential steps:
//
//  1. The Rewriter turns the latest user message, together with the earlier
//     turns, into one standalone search query. It runs at temperature 0 and
//     returns the message verbatim when the model produces nothing.
//  2. A Retriever (see package search) fetches the top matching chunks and
//     joins them into a single context block.
//  3. The Generator streams an answer grounded in that context, in the
//     language of the requested locale.
//
// Pipeline composes the steps. Answer returns a Stream of fragments that the
// caller forwards as they arrive; Ask buffers the whole answer.
package rag
