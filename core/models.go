package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentDigest returns the hex BLAKE2b-256 digest of everything read from r.
func ContentDigest(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// String renders the ID in decimal.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses the decimal form produced by String.
func ParseID(s string) (ID, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return ID(v), true
}

// DefaultNamespace is the index namespace used when none is configured.
const DefaultNamespace = "default"

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser is a message typed by the person asking questions.
	RoleUser Role = "user"
	// RoleAssistant is a previously generated answer.
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn as sent by the client.
// Order within a slice is chronological.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SourceType discriminates how a document source is resolved.
type SourceType string

const (
	// SourceTypeURL fetches the document over HTTP(S).
	SourceTypeURL SourceType = "url"
	// SourceTypeUpload reads a file the server already received.
	SourceTypeUpload SourceType = "upload"
	// SourceTypeRaw treats Source as the document text itself.
	SourceTypeRaw SourceType = "raw"
)

// Source describes a document to ingest.
type Source struct {
	Type   SourceType `json:"type"`
	Source string     `json:"source"`
	// Name is an optional display name, e.g. the original upload filename.
	Name string `json:"name,omitempty"`
	// Digest, when set, is part of the document identity, so sources that
	// share a label but differ in content are distinct documents.
	Digest string `json:"digest,omitempty"`
}

// Label returns the name used for chunk provenance.
func (s Source) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Type == SourceTypeRaw {
		return "raw"
	}
	return s.Source
}

// DocumentID derives a stable identifier for the source so repeated
// ingestion of the same document addresses the same chunks. Without a
// Digest, url and upload sources are identified by label alone and a
// later ingest under the same label replaces the earlier one.
func (s Source) DocumentID() ID {
	switch {
	case s.Type == SourceTypeRaw:
		return IDFromContent(string(s.Type) + ":" + s.Source)
	case s.Digest != "":
		return IDFromContent(string(s.Type) + ":" + s.Label() + ":" + s.Digest)
	default:
		return IDFromContent(string(s.Type) + ":" + s.Label())
	}
}

// ChunkID derives the identifier of the index-th chunk of a document within a namespace.
func ChunkID(namespace string, documentID ID, index int) ID {
	return IDFromContent(namespace + ":" + documentID.String() + ":" + strconv.Itoa(index))
}

// Chunk is a bounded slice of an ingested document, the unit of embedding and retrieval.
type Chunk struct {
	Id         ID
	DocumentID ID
	Namespace  string
	Index      int // Position of the chunk within its document
	Text       string
	Source     string // Source label, e.g. URL or filename
	Vector     []float32
	InsertedAt time.Time
	UpdatedAt  time.Time
	Metadata   map[string]string // Loader metadata (e.g. "page")
}

// SearchResult represents a search result with the full chunk and relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

// IngestResult is the typed outcome of a successful ingestion.
type IngestResult struct {
	JobID      string        `json:"job_id"`
	DocumentID ID            `json:"document_id,string"`
	Namespace  string        `json:"namespace"`
	Source     Source        `json:"source"`
	Documents  int           `json:"documents"` // Loaded documents, e.g. PDF pages
	Chunks     int           `json:"chunks"`
	Replaced   int           `json:"replaced"` // Chunks removed from a previous ingestion of the same source
	Duration   time.Duration `json:"duration"`
}
