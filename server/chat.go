package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/rag"
)

// Client-facing error messages.
const (
	msgNoMessages    = "No messages provided"
	msgEmptyQuestion = "Empty question provided"
	msgInvalidBody   = "Invalid request body"
	msgUnexpected    = "An unexpected error occurred"
)

// maxChatBody limits the JSON body of a chat request.
const maxChatBody = 1 << 20

// chat handles POST /api/chat. The answer is streamed as plain text and
// flushed fragment by fragment. Once the first byte is sent the status can
// no longer change, so a failure mid-stream only ends the body.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))

	var req rag.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.chatTimeout)
	defer cancel()

	stream, err := s.answerer.Answer(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoMessages):
			writeError(w, http.StatusBadRequest, msgNoMessages)
		case errors.Is(err, core.ErrEmptyQuestion):
			writeError(w, http.StatusBadRequest, msgEmptyQuestion)
		case core.IsValidation(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Error("chat request failed", "locale", core.ParseLocale(req.Locale), "err", err)
			writeError(w, http.StatusInternalServerError, msgUnexpected)
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	rc.Flush()

	for fragment := range stream.Fragments() {
		if _, err := io.WriteString(w, fragment.Text); err != nil {
			// Client went away; stop the model and let the producer exit
			cancel()
			for range stream.Fragments() {
			}
			logger.Debug("client disconnected during stream", "err", err)
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logger.Debug("flush failed", "err", err)
		}
	}

	if err := stream.Err(); err != nil {
		logger.Error("answer stream ended with error", "locale", core.ParseLocale(req.Locale), "err", err)
	}
}
