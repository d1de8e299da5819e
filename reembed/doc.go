// Package reembed recomputes the vectors of indexed chunks, typically after
// switching embedding models.
//
// Chunks are read from a namespace in batches, embedded with retry and
// exponential backoff, normalized for cosine similarity and written back
// in place. Chunk IDs, text and metadata are left untouched.
package reembed
