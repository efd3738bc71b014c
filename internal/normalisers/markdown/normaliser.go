// Package markdown normalises Markdown files, reading optional YAML front
// matter for title, URL, source and tags.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// frontMatter is the subset of YAML front matter the normaliser understands.
// Unknown keys are kept in metadata.
type frontMatter struct {
	Title      string    `yaml:"title"`
	URL        string    `yaml:"url"`
	Source     string    `yaml:"source"`
	SourceType string    `yaml:"source_type"`
	Summary    string    `yaml:"summary"`
	Language   string    `yaml:"language"`
	Tags       []string  `yaml:"tags"`
	Date       time.Time `yaml:"date"`
}

// Normalise converts a markdown document to plain text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	fm, extra, body, err := splitFrontMatter(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: front matter in %s: %w", domain.ErrInvalidInput, raw.URI, err)
	}

	text := string(body)
	title := normalisers.TitleFor(raw, firstNonEmpty(fm.Title, headingTitle(text)))

	sourceType := domain.SourceTypeMarkdown
	if fm.SourceType != "" {
		sourceType = domain.SourceType(fm.SourceType)
	}

	doc := normalisers.NewDocument(raw, title, stripMarkdown(text), sourceType, "markdown")
	for k, v := range extra {
		if _, exists := doc.Metadata[k]; !exists {
			doc.Metadata[k] = v
		}
	}
	if fm.URL != "" {
		doc.URL = fm.URL
	}
	if fm.Source != "" {
		doc.Source = fm.Source
	}
	doc.Summary = fm.Summary
	doc.Language = fm.Language
	if len(fm.Tags) > 0 {
		doc.Metadata[domain.MetaTags] = fm.Tags
	}
	if !fm.Date.IsZero() {
		doc.CreatedAt = fm.Date.UTC()
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

var fmDelimiter = []byte("---")

// splitFrontMatter separates a leading "---" YAML block from the body.
// Content without front matter is returned unchanged.
func splitFrontMatter(content []byte) (frontMatter, map[string]any, []byte, error) {
	var fm frontMatter
	trimmed := bytes.TrimPrefix(content, []byte("\ufeff"))
	if !bytes.HasPrefix(trimmed, fmDelimiter) {
		return fm, nil, content, nil
	}

	rest := trimmed[len(fmDelimiter):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		return fm, nil, content, nil
	}
	rest = rest[nl+1:]

	end := bytes.Index(rest, []byte("\n---"))
	var block []byte
	switch {
	case bytes.HasPrefix(rest, fmDelimiter):
		block, rest = nil, rest[len(fmDelimiter):]
	case end >= 0:
		block, rest = rest[:end], rest[end+1+len(fmDelimiter):]
	default:
		return fm, nil, content, nil
	}
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	} else {
		rest = nil
	}

	if err := yaml.Unmarshal(block, &fm); err != nil {
		return fm, nil, nil, err
	}
	var extra map[string]any
	if err := yaml.Unmarshal(block, &extra); err != nil {
		return fm, nil, nil, err
	}
	for _, known := range []string{"title", "url", "source", "source_type", "summary", "language", "tags", "date"} {
		delete(extra, known)
	}

	return fm, extra, rest, nil
}

// headingTitle returns the text of the first H1 heading.
func headingTitle(content string) string {
	for line := range strings.Lines(content) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var (
	fencedCode    = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	strong        = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	em            = regexp.MustCompile(`\*([^*\n]+)\*`)
	underscored   = regexp.MustCompile(`(^|[^\p{L}\p{N}_])_{1,2}([^_\n]+)_{1,2}([^\p{L}\p{N}_]|$)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	horizontal    = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	bullets       = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numbered      = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	tableRule     = regexp.MustCompile(`(?m)^\s*\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?\s*$`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown reduces markdown to readable text. Code block contents are
// kept since they are often what a reader searches for.
func stripMarkdown(content string) string {
	content = fencedCode.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$1")
	content = em.ReplaceAllString(content, "$1")
	content = underscored.ReplaceAllString(content, "${1}${2}${3}")
	content = blockquote.ReplaceAllString(content, "")
	content = tableRule.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
