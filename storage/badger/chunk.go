package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/storage"
)

// upsertTxnSize bounds the number of chunks written per transaction
// to stay under badger's transaction size limit.
const upsertTxnSize = 256

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *ChunkRepository) FindSimilar(ctx context.Context, namespace string, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, namespace, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertChunks writes chunks, replacing existing chunks with the same key.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	for start := 0; start < len(chunks); start += upsertTxnSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+upsertTxnSize, len(chunks))

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			now := time.Now().UTC()
			for _, chunk := range chunks[start:end] {
				key := makeChunkKey(chunk.Namespace, chunk.Id)

				// Keep the original insertion time on overwrite
				old, err := readChunk(tx, key)
				if err != nil {
					return err
				}
				if old != nil {
					chunk.InsertedAt = old.InsertedAt
					if old.DocumentID != chunk.DocumentID || old.Index != chunk.Index {
						if err := tx.Delete(makeDocumentChunkKey(old.Namespace, old.DocumentID, old.Index)); err != nil {
							return err
						}
					}
				} else {
					chunk.InsertedAt = now
				}
				chunk.UpdatedAt = now

				if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
					return err
				}

				docKey := makeDocumentChunkKey(chunk.Namespace, chunk.DocumentID, chunk.Index)
				if err := tx.Set(docKey, storage.MarshalID(chunk.Id)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return nil, err
		}
	}

	return chunks, nil
}

// GetChunk retrieves a single chunk by namespace and ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, namespace string, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(namespace, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves multiple chunks by their IDs.
func (r *ChunkRepository) GetChunks(ctx context.Context, namespace string, ids ...core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(namespace, id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentChunks returns a document's chunks ordered by Index.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, namespace string, documentID core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := documentChunkIDs(tx, namespace, documentID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(namespace, id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// DeleteDocument removes every chunk of a document.
func (r *ChunkRepository) DeleteDocument(ctx context.Context, namespace string, documentID core.ID) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(namespace, documentID)
		iter := tx.NewIterator(opts)

		var indexKeys [][]byte
		var chunkIDs []core.ID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var id core.ID
			if err := item.Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			indexKeys = append(indexKeys, item.KeyCopy(nil))
			chunkIDs = append(chunkIDs, id)
		}
		// Iterators must be closed before the transaction is committed
		iter.Close()

		for i, key := range indexKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkKey(namespace, chunkIDs[i])); err != nil {
				return err
			}
		}
		deleted = len(chunkIDs)
		return tx.Commit()
	}, true)
	return deleted, err
}

// CountChunks returns the number of chunks in a namespace.
func (r *ChunkRepository) CountChunks(ctx context.Context, namespace string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkNamespacePrefix(namespace)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// ForEachChunk calls fn with batches of chunks from a namespace.
// Chunk keys are snapshotted up front so fn may write to the repository.
func (r *ChunkRepository) ForEachChunk(ctx context.Context, namespace string, batchSize int, fn func([]*core.Chunk) error) error {
	if batchSize <= 0 {
		return storage.ErrInvalidQuery
	}

	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeChunkNamespacePrefix(namespace)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			ids = append(ids, core.ID(decodeUint64(key[len(prefix):])))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(ids))

		batch, err := r.GetChunks(ctx, namespace, ids[start:end]...)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			continue
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

// readChunk reads a chunk from the transaction. Returns nil, nil when absent.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// documentChunkIDs returns the chunk IDs of a document in index order.
func documentChunkIDs(tx *badger.Txn, namespace string, documentID core.ID) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeDocumentPrefix(namespace, documentID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			id, err := storage.UnmarshalID(val)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
