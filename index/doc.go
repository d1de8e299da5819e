// Package index provides the vector index used for retrieval.
//
// Index satisfies langchaingo's vectorstores.VectorStore, so documents
// produced by langchaingo loaders and splitters can be added directly and
// searched with the usual options (WithNameSpace, WithScoreThreshold).
// Chunks live in a storage.ChunkRepository; vectors are normalized before
// storage so the repository's dot product is cosine similarity.
package index
