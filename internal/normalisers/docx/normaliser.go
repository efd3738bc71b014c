// Package docx normalises Word (OOXML) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"

	// maxPartSize guards against zip bombs.
	maxPartSize = 64 << 20
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts paragraph text, the first heading and the core
// properties (title, subject, creator, created date).
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	zr, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: open docx %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	body, err := readPart(zr, documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}
	text, heading, err := parseBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, documentPart, err)
	}

	var props coreProperties
	if core, err := readPart(zr, corePart); err == nil {
		_ = xml.Unmarshal(core, &props)
	}

	title := strings.TrimSpace(props.Title)
	if title == "" {
		title = heading
	}

	doc := normalisers.NewDocument(raw, normalisers.TitleFor(raw, title), text, domain.SourceTypeDocument, "docx")
	doc.Summary = strings.TrimSpace(props.Subject)
	if c := strings.TrimSpace(props.Creator); c != "" {
		doc.Metadata["author"] = c
	}
	if created, err := time.Parse(time.RFC3339, strings.TrimSpace(props.Created)); err == nil {
		doc.CreatedAt = created.UTC()
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

var errMissingPart = errors.New("missing part")

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxPartSize))
	}
	return nil, fmt.Errorf("%w %s", errMissingPart, name)
}

// coreProperties is docProps/core.xml. Element names are matched by local
// name, so the dc/dcterms prefixes do not matter.
type coreProperties struct {
	Title   string `xml:"title"`
	Subject string `xml:"subject"`
	Creator string `xml:"creator"`
	Created string `xml:"created"`
}

// parseBody streams word/document.xml. Paragraphs become lines, table cells
// are tab separated, and the first paragraph styled Title or Heading1 is
// returned as the heading.
func parseBody(data []byte) (text, heading string, err error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out       strings.Builder
		para      strings.Builder
		style     string
		inText    bool
		cellCount int
	)

	flush := func() {
		line := strings.TrimSpace(para.String())
		para.Reset()
		if line == "" {
			return
		}
		if heading == "" && (style == "Title" || style == "Heading1") {
			heading = line
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(line)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				style = ""
			case "pStyle":
				style = attrValue(t, "val")
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte(' ')
			case "tr":
				cellCount = 0
			case "tc":
				if cellCount > 0 {
					cell := strings.TrimRight(para.String(), " ")
					para.Reset()
					para.WriteString(cell)
					para.WriteByte('\t')
				}
				cellCount++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if cellCount == 0 {
					flush()
				} else {
					para.WriteByte(' ')
				}
			case "tr":
				flush()
				cellCount = 0
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()

	return out.String(), heading, nil
}

func attrValue(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
