// Package events publishes ingestion outcomes.
//
// Every ingestion job emits one IngestEvent on SubjectIngestCompleted or
// SubjectIngestFailed. NATSPublisher sends events as JSON over NATS;
// NoopPublisher is used when no broker is configured.
package events
