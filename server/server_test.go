package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/ai/mock"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/index"
	"github.com/poiesic/docchat/ingestion"
	"github.com/poiesic/docchat/rag"
	"github.com/poiesic/docchat/search"
	"github.com/poiesic/docchat/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server   *Server
	llm      *mock.MockLanguageModel
	index    *index.Index
	pipeline *rag.Pipeline
}

func setupServer(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	idx, err := index.New(repo, embedder)
	require.NoError(t, err)

	searcher, err := search.NewSearcher(idx)
	require.NoError(t, err)

	llm := mock.NewMockLanguageModel()
	pipeline, err := rag.NewPipeline(llm, searcher, rag.WithRetries(1, 0))
	require.NoError(t, err)

	ingester, err := ingestion.NewPipeline(idx, embedder, ingestion.WithRetries(1, 0))
	require.NoError(t, err)
	t.Cleanup(ingester.Release)

	opts = append([]Option{WithIngester(ingester), WithUploadDir(t.TempDir())}, opts...)
	srv, err := NewServer(pipeline, opts...)
	require.NoError(t, err)

	return &testEnv{server: srv, llm: llm, index: idx, pipeline: pipeline}
}

func (e *testEnv) do(t *testing.T, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return e.do(t, http.MethodPost, path, "application/json", data)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	env := setupServer(t)
	w := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestNotFoundEndpoint(t *testing.T) {
	env := setupServer(t)
	w := env.do(t, http.MethodGet, "/nonexistent", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	env := setupServer(t)
	_, err = NewServer(env.pipeline, WithChatTimeout(0))
	assert.Error(t, err)

	srv, err := NewServer(env.pipeline)
	require.NoError(t, err)
	assert.Equal(t, DefaultChatTimeout, srv.chatTimeout)

	// ingestion routes only exist with an ingester
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat_Validation(t *testing.T) {
	env := setupServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"no messages", `{"messages": []}`, msgNoMessages},
		{"missing messages", `{}`, msgNoMessages},
		{"blank question", `{"messages": [{"role": "user", "content": "   "}]}`, msgEmptyQuestion},
		{"malformed json", `{"messages": `, msgInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/chat", "application/json", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w).Error)
		})
	}

	t.Run("invalid role", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/chat", "application/json",
			[]byte(`{"messages": [{"role": "system", "content": "hi"}]}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.Zero(t, env.llm.CallCount())
}

func TestChat_UpstreamFailure(t *testing.T) {
	env := setupServer(t)
	env.llm.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
		return "", errors.New("provider returned 502 with secret details")
	}

	w := env.postJSON(t, "/api/chat", rag.Request{Messages: []core.Message{{Role: core.RoleUser, Content: "hi"}}})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, msgUnexpected, resp.Error)
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestChat_Streams(t *testing.T) {
	env := setupServer(t)
	env.llm.WithCompletions("What is the refund window?").WithFragments("Refunds ", "take ", "30 days.")

	w := env.postJSON(t, "/api/chat", rag.Request{
		Messages: []core.Message{{Role: core.RoleUser, Content: "refunds?"}},
		Locale:   "en",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Refunds take 30 days.", w.Body.String())
	assert.True(t, w.Flushed)
}

func TestChat_MidStreamError(t *testing.T) {
	env := setupServer(t)
	env.llm.WithCompletions("q?")
	env.llm.StreamFunc = func(ctx context.Context, req ai.CompletionRequest, fn ai.FragmentFunc) error {
		if err := fn(ctx, "partial answer"); err != nil {
			return err
		}
		return errors.New("connection reset")
	}

	w := env.postJSON(t, "/api/chat", rag.Request{Messages: []core.Message{{Role: core.RoleUser, Content: "q"}}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial answer", w.Body.String())
}

func TestChat_Timeout(t *testing.T) {
	env := setupServer(t, WithChatTimeout(50*time.Millisecond))
	env.llm.WithCompletions("q?")
	env.llm.StreamFunc = func(ctx context.Context, req ai.CompletionRequest, fn ai.FragmentFunc) error {
		if err := fn(ctx, "slow "); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- env.postJSON(t, "/api/chat", rag.Request{Messages: []core.Message{{Role: core.RoleUser, Content: "q"}}})
	}()

	select {
	case w := <-done:
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "slow ", w.Body.String())
	case <-time.After(5 * time.Second):
		t.Fatal("chat request did not honor its timeout")
	}
}

func TestIngest(t *testing.T) {
	env := setupServer(t)

	t.Run("raw source", func(t *testing.T) {
		w := env.postJSON(t, "/api/ingest", core.Source{Type: core.SourceTypeRaw, Source: "Refunds take thirty days."})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Result core.IngestResult `json:"result"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 1, resp.Result.Chunks)
		assert.NotEmpty(t, resp.Result.JobID)

		count, err := env.index.Count(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("invalid source", func(t *testing.T) {
		w := env.postJSON(t, "/api/ingest", core.Source{Type: "ftp", Source: "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upload path rejected", func(t *testing.T) {
		w := env.postJSON(t, "/api/ingest", core.Source{Type: core.SourceTypeUpload, Source: "/etc/passwd"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgUploadViaAPI, decodeError(t, w).Error)
	})

	t.Run("stage failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		w := env.postJSON(t, "/api/ingest", core.Source{Type: core.SourceTypeURL, Source: srv.URL + "/doc.pdf"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, msgUnexpected, resp.Error)
		assert.Equal(t, ingestion.StageLoad, resp.Stage)
	})
}

func multipartBody(t *testing.T, field, filename, contents string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	t.Run("text file", func(t *testing.T) {
		env := setupServer(t)
		body, contentType := multipartBody(t, "file", "handbook.txt", "Warranty claims require the original receipt.")

		w := env.do(t, http.MethodPost, "/api/upload", contentType, body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Result core.IngestResult `json:"result"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, core.SourceTypeUpload, resp.Result.Source.Type)
		assert.Equal(t, "handbook.txt", resp.Result.Source.Name)
		assert.Equal(t, 1, resp.Result.Chunks)

		hits, err := env.index.Search(context.Background(), "", "warranty receipt", 1, 0)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "handbook.txt", hits[0].Chunk.Source)
	})

	t.Run("same name different content", func(t *testing.T) {
		env := setupServer(t)
		ctx := context.Background()
		first := "Alice's report: revenue grew in the third quarter."
		second := "Bob's report: the warehouse moved to Denver last spring."

		for _, contents := range []string{first, second} {
			body, contentType := multipartBody(t, "file", "report.txt", contents)
			w := env.do(t, http.MethodPost, "/api/upload", contentType, body)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Result core.IngestResult `json:"result"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Zero(t, resp.Result.Replaced)
		}

		count, err := env.index.Count(ctx, core.DefaultNamespace)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		hits, err := env.index.Search(ctx, "", "revenue grew third quarter", 1, 0)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, first, hits[0].Chunk.Text)

		hits, err = env.index.Search(ctx, "", "warehouse Denver", 1, 0)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, second, hits[0].Chunk.Text)
	})

	t.Run("identical re-upload replaces", func(t *testing.T) {
		env := setupServer(t)
		body, contentType := multipartBody(t, "file", "handbook.txt", "Warranty claims require the original receipt.")

		w := env.do(t, http.MethodPost, "/api/upload", contentType, body)
		require.Equal(t, http.StatusOK, w.Code)
		w = env.do(t, http.MethodPost, "/api/upload", contentType, body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Result core.IngestResult `json:"result"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 1, resp.Result.Replaced)
		assert.NotEmpty(t, resp.Result.Source.Digest)

		count, err := env.index.Count(context.Background(), core.DefaultNamespace)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("missing file", func(t *testing.T) {
		env := setupServer(t)
		body, contentType := multipartBody(t, "", "", "")
		w := env.do(t, http.MethodPost, "/api/upload", contentType, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgNoFile, decodeError(t, w).Error)
	})

	t.Run("too large", func(t *testing.T) {
		env := setupServer(t, WithMaxUploadSize(64))
		body, contentType := multipartBody(t, "file", "big.txt", strings.Repeat("x", 1024))
		w := env.do(t, http.MethodPost, "/api/upload", contentType, body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestListenAndServe_Shutdown(t *testing.T) {
	env := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- env.server.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
