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


// Package storage provides the storage abstraction layer for docchat's vector index.
//
// This package defines repository interfaces that decouple storage implementation
// from the ingestion and retrieval logic. The BadgerDB implementation lives in
// storage/badger.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return concrete types so callers
// can reach backend-specific helpers, while consumers accept the interfaces:
//
//	backend, err := badger.OpenBackend(path, false)
//	repo, err := badger.NewChunkRepository(backend) // satisfies storage.ChunkRepository
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - Repository: operations shared by all repositories (similarity search, transactions)
//   - ChunkRepository: operations for document chunks
//
// Chunks are partitioned by namespace. Every read, write and similarity search is
// scoped to exactly one namespace, so several independently ingested collections
// can share one database.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer func() { repo.Close(); backend.Close() }()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation.
// Long scans (similarity search, iteration) check the context between items.
package storage
