package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/ingestion"
)

const (
	msgNoFile       = "No file provided"
	msgFileTooLarge = "File too large"
	msgUploadViaAPI = "Uploads must be sent to /api/upload"
)

type ingestResponse struct {
	Result *core.IngestResult `json:"result"`
}

// ingest handles POST /api/ingest with a JSON source descriptor. Upload
// sources are rejected here because they name paths on the server.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	var source core.Source
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBody)).Decode(&source); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if source.Type == core.SourceTypeUpload {
		writeError(w, http.StatusBadRequest, msgUploadViaAPI)
		return
	}
	s.runIngest(w, r, source)
}

// upload handles POST /api/upload with a multipart "file" field. The file
// is staged on disk for the duration of the ingestion. Its content digest
// is part of the document identity, so only an identical re-upload
// replaces earlier chunks.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, msgFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	tmp, err := os.CreateTemp(s.uploadDir, "docchat-upload-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		s.logger.Error("failed to stage upload", "err", err)
		writeError(w, http.StatusInternalServerError, msgUnexpected)
		return
	}
	defer os.Remove(tmp.Name())

	digest, err := core.ContentDigest(io.TeeReader(file, tmp))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Error("failed to stage upload", "err", err)
		writeError(w, http.StatusInternalServerError, msgUnexpected)
		return
	}

	s.runIngest(w, r, core.Source{
		Type:   core.SourceTypeUpload,
		Source: tmp.Name(),
		Name:   name,
		Digest: digest,
	})
}

func (s *Server) runIngest(w http.ResponseWriter, r *http.Request, source core.Source) {
	ctx, cancel := context.WithTimeout(r.Context(), s.ingestTimeout)
	defer cancel()

	result, err := s.ingester.Ingest(ctx, source)
	if err != nil {
		if core.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp := errorResponse{Error: msgUnexpected}
		var stageErr *ingestion.StageError
		if errors.As(err, &stageErr) {
			resp.Stage = stageErr.Stage
		}
		s.logger.Error("ingestion request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"type", source.Type,
			"stage", resp.Stage,
			"err", err)
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Result: result})
}
