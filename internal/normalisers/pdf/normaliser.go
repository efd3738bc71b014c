// Package pdf normalises PDF files by extracting their text layer.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the plain text of every page. Scanned PDFs without a
// text layer yield empty content, which ingestion rejects.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	text, err := plainText(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	title := infoTitle(reader)
	if title == "" {
		title = normalisers.FirstLine(text)
	}

	doc := normalisers.NewDocument(raw, normalisers.TitleFor(raw, title), text, domain.SourceTypeDocument, "pdf")
	doc.Metadata["pages"] = reader.NumPage()

	return &driven.NormaliseResult{Document: doc}, nil
}

// plainText reads the text layer, recovering from parser panics on
// malformed content streams.
func plainText(r *pdf.Reader) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed content: %v", p)
		}
	}()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(rd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// infoTitle returns the document information dictionary title, if any.
func infoTitle(r *pdf.Reader) (title string) {
	defer func() {
		if recover() != nil {
			title = ""
		}
	}()
	return strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text())
}
