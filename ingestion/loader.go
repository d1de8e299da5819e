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

package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/docchat/core"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// contentKind selects the langchaingo loader for a payload.
type contentKind int

const (
	kindText contentKind = iota
	kindHTML
	kindPDF
)

func (k contentKind) String() string {
	switch k {
	case kindPDF:
		return "pdf"
	case kindHTML:
		return "html"
	default:
		return "text"
	}
}

var pdfMagic = []byte("%PDF-")

// detectKind decides how to parse data using, in order, the PDF magic
// bytes, the declared content type and the file extension.
func detectKind(data []byte, contentType, name string) contentKind {
	if bytes.HasPrefix(data, pdfMagic) {
		return kindPDF
	}

	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			switch mediaType {
			case "application/pdf":
				return kindPDF
			case "text/html", "application/xhtml+xml":
				return kindHTML
			}
		}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return kindPDF
	case ".html", ".htm":
		return kindHTML
	}

	if contentType == "" && strings.HasPrefix(http.DetectContentType(data), "text/html") {
		return kindHTML
	}
	return kindText
}

// parse runs the langchaingo loader matching kind.
func parse(ctx context.Context, data []byte, kind contentKind) ([]schema.Document, error) {
	switch kind {
	case kindPDF:
		return documentloaders.NewPDF(bytes.NewReader(data), int64(len(data))).Load(ctx)
	case kindHTML:
		return documentloaders.NewHTML(bytes.NewReader(data)).Load(ctx)
	default:
		return documentloaders.NewText(bytes.NewReader(data)).Load(ctx)
	}
}

// load resolves a source into langchaingo documents.
func (p *Pipeline) load(ctx context.Context, source core.Source) ([]schema.Document, error) {
	switch source.Type {
	case core.SourceTypeURL:
		return p.loadURL(ctx, source.Source)
	case core.SourceTypeUpload:
		return p.loadFile(ctx, source.Source, source.Name)
	case core.SourceTypeRaw:
		return documentloaders.NewText(strings.NewReader(source.Source)).Load(ctx)
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownSourceType, source.Type)
}

func (p *Pipeline) loadURL(ctx context.Context, url string) ([]schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf, text/html;q=0.9, text/plain;q=0.8, */*;q=0.5")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxDownload+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > p.maxDownload {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDownloadTooLarge, p.maxDownload)
	}

	kind := detectKind(data, resp.Header.Get("Content-Type"), req.URL.Path)
	p.logger.Debug("downloaded source", "url", url, "bytes", len(data), "kind", kind)
	return parse(ctx, data, kind)
}

func (p *Pipeline) loadFile(ctx context.Context, path, name string) ([]schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = path
	}
	kind := detectKind(data, "", name)
	p.logger.Debug("read upload", "path", path, "bytes", len(data), "kind", kind)
	return parse(ctx, data, kind)
}
