package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexRequired is returned when no index is provided.
	ErrIndexRequired = errors.New("index required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrNoContent is returned when a source yields no text.
	ErrNoContent = errors.New("source contains no text")

	// ErrInvalidChunking is returned for unusable chunk size and overlap settings.
	ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")

	// ErrDownloadTooLarge is returned when a URL body exceeds the download limit.
	ErrDownloadTooLarge = errors.New("download exceeds size limit")

	// ErrUnexpectedStatus is returned when a URL fetch does not return 200.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// Pipeline stages.
const (
	StageLoad   = "load"
	StageSplit  = "split"
	StageEmbed  = "embed"
	StageUpsert = "upsert"
)

// StageError reports which ingestion stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}
