package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/docchat/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op   string
	name string
}

type recordingIngester struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (r *recordingIngester) Ingest(ctx context.Context, source core.Source) (*core.IngestResult, error) {
	r.record("ingest", source)
	if r.err != nil {
		return nil, r.err
	}
	return &core.IngestResult{Source: source, Chunks: 1}, nil
}

func (r *recordingIngester) Remove(ctx context.Context, source core.Source) (int, error) {
	r.record("remove", source)
	return 1, r.err
}

func (r *recordingIngester) record(op string, source core.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{op: op, name: source.Name})
}

func (r *recordingIngester) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func startWatcher(t *testing.T, ingester Ingester, dir string, opts ...Option) {
	t.Helper()
	opts = append([]Option{WithDebounce(20 * time.Millisecond)}, opts...)
	w, err := New(ingester, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, dir) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	// Give the watcher time to register the directory
	time.Sleep(50 * time.Millisecond)
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrIngesterRequired)

	w, err := New(&recordingIngester{}, WithExtensions("PDF", ".txt"), WithDebounce(0), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{".pdf", ".txt"}, w.extensions)
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestWatched(t *testing.T) {
	w, err := New(&recordingIngester{})
	require.NoError(t, err)

	assert.True(t, w.watched("/docs/manual.pdf"))
	assert.True(t, w.watched("/docs/README.MD"))
	assert.False(t, w.watched("/docs/image.png"))
	assert.False(t, w.watched("/docs/noext"))
}

func TestRun_IngestsNewFiles(t *testing.T) {
	dir := t.TempDir()
	ingester := &recordingIngester{}
	startWatcher(t, ingester, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "policy.txt"), []byte("Refunds within thirty days."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte("png"), 0o600))

	assert.Eventually(t, func() bool {
		return len(ingester.Calls()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// Create and write events for one file collapse into a single ingest
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []call{{op: "ingest", name: "policy.txt"}}, ingester.Calls())
}

func TestRun_RemovesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes"), 0o600))

	ingester := &recordingIngester{}
	startWatcher(t, ingester, dir)

	require.NoError(t, os.Remove(path))

	assert.Eventually(t, func() bool {
		calls := ingester.Calls()
		return len(calls) == 1 && calls[0] == call{op: "remove", name: "notes.md"}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRun_InitialScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("%PDF-"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.bin"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	ingester := &recordingIngester{}
	startWatcher(t, ingester, dir, WithInitialScan(true))

	assert.Equal(t, []call{{op: "ingest", name: "a.pdf"}, {op: "ingest", name: "b.txt"}}, ingester.Calls())
}

func TestRun_IngestErrorKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	ingester := &recordingIngester{err: errors.New("embedding service down")}
	startWatcher(t, ingester, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.txt"), []byte("one"), 0o600))
	assert.Eventually(t, func() bool { return len(ingester.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.txt"), []byte("two"), 0o600))
	assert.Eventually(t, func() bool { return len(ingester.Calls()) == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestRun_MissingDirectory(t *testing.T) {
	w, err := New(&recordingIngester{})
	require.NoError(t, err)

	err = w.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSourceFor(t *testing.T) {
	source := sourceFor("/srv/docs/handbook.pdf")
	assert.Equal(t, core.SourceTypeUpload, source.Type)
	assert.Equal(t, "/srv/docs/handbook.pdf", source.Source)
	assert.Equal(t, "handbook.pdf", source.Name)
}
