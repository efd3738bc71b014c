package normalisers

import (
	"maps"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// Metadata keys written by the normalisers in addition to the domain ones.
const (
	MetaFormat     = "format"
	MetaURL        = "url"
	MetaTitle      = "title"
	MetaSourceType = "source_type"
)

// NewDocument builds a parent document from a raw document and extracted
// text. Identity and timestamps are left for the ingest service to fill.
// raw.Metadata["url"] wins over an http(s) URI as the document URL and
// raw.Metadata["source_type"] wins over sourceType.
func NewDocument(raw *domain.RawDocument, title, content string, sourceType domain.SourceType, format string) domain.KnowledgeDocument {
	meta := make(map[string]any, len(raw.Metadata)+3)
	maps.Copy(meta, raw.Metadata)
	if raw.MIMEType != "" {
		meta[domain.MetaMIMEType] = raw.MIMEType
	}
	meta[MetaFormat] = format
	meta[domain.MetaFileSize] = len(raw.Content)
	if st := stringMeta(raw.Metadata, MetaSourceType); st != "" {
		sourceType = domain.SourceType(st)
		delete(meta, MetaSourceType)
	}

	doc := domain.KnowledgeDocument{
		Title:      title,
		Content:    content,
		Source:     raw.Source,
		SourceType: sourceType,
		Metadata:   meta,
	}

	switch {
	case stringMeta(raw.Metadata, MetaURL) != "":
		doc.URL = stringMeta(raw.Metadata, MetaURL)
	case IsWebURL(raw.URI):
		doc.URL = raw.URI
	case raw.URI != "":
		meta[domain.MetaFilePath] = raw.URI
	}

	return doc
}

// TitleFor prefers an explicit metadata title, then the given candidate,
// then a title derived from the URI.
func TitleFor(raw *domain.RawDocument, candidate string) string {
	if t := stringMeta(raw.Metadata, MetaTitle); t != "" {
		return t
	}
	if t := strings.TrimSpace(candidate); t != "" {
		return t
	}
	return TitleFromURI(raw.URI)
}

// TitleFromURI turns "notes/f2p_monetization-guide.md" into
// "f2p monetization guide".
func TitleFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	name := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" && u.Path != "" {
		name = u.Path
	}
	name = filepath.Base(strings.TrimRight(name, "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

// IsWebURL reports whether s is an absolute http(s) URL.
func IsWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// FirstLine returns the first non-blank line, used as a title fallback.
func FirstLine(text string) string {
	for line := range strings.Lines(text) {
		line = strings.TrimFunc(line, unicode.IsSpace)
		if line != "" {
			return line
		}
	}
	return ""
}

func stringMeta(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
