package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docchat/core"
)

// Subjects for ingestion outcomes.
const (
	SubjectIngestCompleted = "docchat.ingest.completed"
	SubjectIngestFailed    = "docchat.ingest.failed"

	// SubjectIngestAll matches every ingestion subject.
	SubjectIngestAll = "docchat.ingest.>"
)

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(subject string, data any) error
}

// IngestEvent describes the outcome of one ingestion job.
type IngestEvent struct {
	EventID    string          `json:"event_id"`
	JobID      string          `json:"job_id"`
	SourceType core.SourceType `json:"source_type"`
	Source     string          `json:"source"`
	Namespace  string          `json:"namespace"`
	Chunks     int             `json:"chunks"`
	Stage      string          `json:"stage,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewIngestEvent creates an event with a fresh event ID and timestamp.
func NewIngestEvent(jobID string, source core.Source, namespace string) IngestEvent {
	return IngestEvent{
		EventID:    uuid.NewString(),
		JobID:      jobID,
		SourceType: source.Type,
		Source:     source.Label(),
		Namespace:  namespace,
		Timestamp:  time.Now().UTC(),
	}
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) Publish(string, any) error { return nil }

// Message is an event captured by MemoryPublisher.
type Message struct {
	Subject string
	Data    any
}

// MemoryPublisher keeps published events in memory. It is safe for
// concurrent use.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
}

var _ Publisher = (*MemoryPublisher)(nil)

func (m *MemoryPublisher) Publish(subject string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{Subject: subject, Data: data})
	return nil
}

// Messages returns a copy of everything published so far.
func (m *MemoryPublisher) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}
