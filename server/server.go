// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the chat and ingestion pipelines over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/rag"
)

const (
	DefaultChatTimeout   = 30 * time.Second
	DefaultIngestTimeout = 5 * time.Minute
	DefaultMaxUploadSize = 32 << 20
)

// Answerer streams answers to chat requests.
type Answerer interface {
	Answer(ctx context.Context, req rag.Request) (*rag.Stream, error)
}

// Ingester indexes a document source.
type Ingester interface {
	Ingest(ctx context.Context, source core.Source) (*core.IngestResult, error)
}

// Server routes HTTP requests to the pipelines.
type Server struct {
	router        *chi.Mux
	answerer      Answerer
	ingester      Ingester
	chatTimeout   time.Duration
	ingestTimeout time.Duration
	maxUploadSize int64
	uploadDir     string
	logger        *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithChatTimeout bounds the whole chat request, including streaming.
// Default is 30s.
func WithChatTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return errors.New("chat timeout must be positive")
		}
		s.chatTimeout = timeout
		return nil
	}
}

// WithIngestTimeout bounds ingestion requests. Default is 5m.
func WithIngestTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return errors.New("ingest timeout must be positive")
		}
		s.ingestTimeout = timeout
		return nil
	}
}

// WithIngester enables the ingestion routes.
func WithIngester(ingester Ingester) Option {
	return func(s *Server) error {
		s.ingester = ingester
		return nil
	}
}

// WithMaxUploadSize limits multipart uploads in bytes. Default is 32 MiB.
func WithMaxUploadSize(size int64) Option {
	return func(s *Server) error {
		if size < 1 {
			size = DefaultMaxUploadSize
		}
		s.maxUploadSize = size
		return nil
	}
}

// WithUploadDir sets where uploads are staged before ingestion.
// Default is the system temp directory.
func WithUploadDir(dir string) Option {
	return func(s *Server) error {
		s.uploadDir = dir
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "server")
		return nil
	}
}

// NewServer creates a server answering chat requests with answerer.
func NewServer(answerer Answerer, opts ...Option) (*Server, error) {
	if answerer == nil {
		return nil, errors.New("answerer required")
	}

	s := &Server{
		answerer:      answerer,
		chatTimeout:   DefaultChatTimeout,
		ingestTimeout: DefaultIngestTimeout,
		maxUploadSize: DefaultMaxUploadSize,
		logger:        slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", s.health)
	router.Post("/api/chat", s.chat)
	if s.ingester != nil {
		router.Post("/api/ingest", s.ingest)
		router.Post("/api/upload", s.upload)
	}

	s.router = router
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
