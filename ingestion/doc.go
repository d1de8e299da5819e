// Package ingestion turns document sources into indexed chunks.
//
// A Pipeline resolves a core.Source (a URL, an uploaded file or raw text)
// with the langchaingo document loaders, splits the text into overlapping
// chunks, embeds the chunks in batches on a worker pool and upserts them
// into the vector index. Re-ingesting a source replaces its earlier chunks.
//
// Each run publishes an events.IngestEvent describing its outcome.
package ingestion
