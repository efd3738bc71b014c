// Package eml normalises saved e-mail messages, typically newsletters.
// The sender's domain becomes the document source and an Archived-At or
// List-Post link, when present, becomes its URL.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/normalisers"
	htmlnorm "github.com/aloha-corp/aloha-rag/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles RFC 822 messages.
type Normaliser struct{}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a message into a newsletter document. Plain text parts
// are preferred over HTML ones.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: read message %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	dec := new(mime.WordDecoder)
	header := func(key string) string {
		v := msg.Header.Get(key)
		if d, err := dec.DecodeHeader(v); err == nil {
			return strings.TrimSpace(d)
		}
		return strings.TrimSpace(v)
	}

	text, err := extractBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: body of %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	subject := header("Subject")
	doc := normalisers.NewDocument(raw, normalisers.TitleFor(raw, subject), text, domain.SourceTypeNewsletter, "eml")

	from := header("From")
	if addr, err := mail.ParseAddress(from); err == nil {
		doc.Metadata["from"] = addr.Address
		if doc.Source == "" {
			if _, host, ok := strings.Cut(addr.Address, "@"); ok {
				doc.Source = strings.ToLower(host)
			}
		}
	} else if from != "" {
		doc.Metadata["from"] = from
	}

	if doc.URL == "" {
		doc.URL = listURL(msg.Header)
	}
	if date, err := msg.Header.Date(); err == nil {
		doc.CreatedAt = date.UTC()
	}
	if id := strings.Trim(msg.Header.Get("Message-Id"), "<> "); id != "" {
		doc.Metadata["message_id"] = id
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// listURL returns the archive link of a mailing-list message (RFC 5064,
// RFC 2369), stripped of angle brackets.
func listURL(h mail.Header) string {
	for _, key := range []string{"Archived-At", "List-Post"} {
		for _, part := range strings.Split(h.Get(key), ",") {
			u := strings.Trim(strings.TrimSpace(part), "<>")
			if normalisers.IsWebURL(u) {
				return u
			}
		}
	}
	return ""
}

// maxDepth bounds multipart nesting.
const maxDepth = 5

func extractBody(contentType, encoding string, r io.Reader) (string, error) {
	return extractPart(contentType, encoding, r, 0)
}

func extractPart(contentType, encoding string, r io.Reader, depth int) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth || params["boundary"] == "" {
			return "", nil
		}
		return extractMultipart(multipart.NewReader(r, params["boundary"]), depth)
	}

	body, err := io.ReadAll(decodeTransfer(encoding, r))
	if err != nil {
		return "", err
	}

	switch mediaType {
	case "text/html":
		return htmlnorm.ExtractText(string(body)), nil
	case "text/plain":
		return strings.TrimSpace(strings.ReplaceAll(string(body), "\r\n", "\n")), nil
	default:
		return "", nil
	}
}

// extractMultipart prefers text/plain parts, falling back to HTML.
func extractMultipart(mr *multipart.Reader, depth int) (string, error) {
	var plain, html []string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		ct := part.Header.Get("Content-Type")
		text, err := extractPart(ct, part.Header.Get("Content-Transfer-Encoding"), part, depth+1)
		part.Close()
		if err != nil || text == "" {
			continue
		}
		if mt, _, _ := mime.ParseMediaType(ct); mt == "text/html" {
			html = append(html, text)
		} else {
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n\n"), nil
	}
	return strings.Join(html, "\n\n"), nil
}

// decodeTransfer undoes the transfer encoding. multipart.Reader already
// decodes quoted-printable parts and drops their header.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
