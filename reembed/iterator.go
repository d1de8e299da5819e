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

package reembed

import (
	"context"

	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
)

const (
	// DefaultBatchSize is the default number of chunks to fetch in each batch
	DefaultBatchSize = 100
)

// ChunkIterator iterates over the chunks of one namespace in batches.
type ChunkIterator struct {
	repo      storage.ChunkRepository
	namespace string
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks to fetch in each batch; non-positive values use DefaultBatchSize
func NewChunkIterator(repo storage.ChunkRepository, namespace string, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if namespace == "" {
		namespace = core.DefaultNamespace
	}

	return &ChunkIterator{
		repo:      repo,
		namespace: namespace,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of chunks. Iteration stops on the first
// error from fn or when ctx is cancelled. The set of chunks is fixed when
// iteration starts, so fn may rewrite the chunks it receives.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return it.repo.ForEachChunk(ctx, it.namespace, it.batchSize, fn)
}
