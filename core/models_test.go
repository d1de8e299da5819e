package core

import (
	"strings"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestSource_DocumentID(t *testing.T) {
	a := Source{Type: SourceTypeURL, Source: "https://example.com/a.pdf"}
	b := Source{Type: SourceTypeURL, Source: "https://example.com/a.pdf"}
	c := Source{Type: SourceTypeURL, Source: "https://example.com/b.pdf"}

	if a.DocumentID() != b.DocumentID() {
		t.Errorf("same source produced different document IDs")
	}
	if a.DocumentID() == c.DocumentID() {
		t.Errorf("different sources produced the same document ID")
	}

	// Without a digest, uploads are identified by their display name, not the temp path they landed on.
	up1 := Source{Type: SourceTypeUpload, Source: "/tmp/upload-1", Name: "report.pdf"}
	up2 := Source{Type: SourceTypeUpload, Source: "/tmp/upload-2", Name: "report.pdf"}
	if up1.DocumentID() != up2.DocumentID() {
		t.Errorf("re-uploading the same file should map to the same document ID")
	}

	// With a digest, same-named uploads only collide when their content matches.
	alice := Source{Type: SourceTypeUpload, Source: "/tmp/upload-3", Name: "report.pdf", Digest: "aa"}
	bob := Source{Type: SourceTypeUpload, Source: "/tmp/upload-4", Name: "report.pdf", Digest: "bb"}
	again := Source{Type: SourceTypeUpload, Source: "/tmp/upload-5", Name: "report.pdf", Digest: "aa"}
	if alice.DocumentID() == bob.DocumentID() {
		t.Errorf("same-named uploads with different content produced the same document ID")
	}
	if alice.DocumentID() != again.DocumentID() {
		t.Errorf("identical uploads produced different document IDs")
	}
	if alice.DocumentID() == up1.DocumentID() {
		t.Errorf("digest should change the document ID")
	}
}

func TestContentDigest(t *testing.T) {
	a, err := ContentDigest(strings.NewReader("first report"))
	if err != nil {
		t.Fatalf("ContentDigest() error = %v", err)
	}
	b, _ := ContentDigest(strings.NewReader("first report"))
	c, _ := ContentDigest(strings.NewReader("second report"))

	if len(a) != 64 {
		t.Errorf("ContentDigest() length = %d, want 64 hex chars", len(a))
	}
	if a != b {
		t.Errorf("ContentDigest() differs for identical content")
	}
	if a == c {
		t.Errorf("ContentDigest() matches for different content")
	}
}

func TestSource_Label(t *testing.T) {
	tests := []struct {
		name   string
		source Source
		want   string
	}{
		{"name wins", Source{Type: SourceTypeUpload, Source: "/tmp/x", Name: "x.pdf"}, "x.pdf"},
		{"url", Source{Type: SourceTypeURL, Source: "https://example.com"}, "https://example.com"},
		{"raw", Source{Type: SourceTypeRaw, Source: "some long text"}, "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.source.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkID(t *testing.T) {
	doc := IDFromContent("doc")

	if ChunkID("ns", doc, 0) != ChunkID("ns", doc, 0) {
		t.Errorf("ChunkID() is not deterministic")
	}
	if ChunkID("ns", doc, 0) == ChunkID("ns", doc, 1) {
		t.Errorf("ChunkID() collides across indices")
	}
	if ChunkID("ns", doc, 0) == ChunkID("other", doc, 0) {
		t.Errorf("ChunkID() collides across namespaces")
	}
}

func TestParseID(t *testing.T) {
	id := IDFromContent("round trip")

	parsed, ok := ParseID(id.String())
	if !ok || parsed != id {
		t.Errorf("ParseID(%q) = %d, %v; want %d, true", id.String(), parsed, ok, id)
	}

	if _, ok := ParseID("not-a-number"); ok {
		t.Errorf("ParseID accepted a non-numeric string")
	}
}
